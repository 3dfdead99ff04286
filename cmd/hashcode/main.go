// Command hashcode prints the bcrypt hash of a tablet pairing code, ready to
// paste into the restaurants file or the restaurants.pairing_hash column.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	code := ""
	if len(os.Args) > 1 {
		code = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "Pairing code: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		code = strings.TrimSpace(line)
	}

	if len(code) < 4 {
		fmt.Fprintln(os.Stderr, "pairing code must be at least 4 characters")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash failed:", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
