// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

// Command accountctl is a terminal client for Mercato accounts.
//
// # Usage
//
//	accountctl [-server URL] register
//	accountctl [-server URL] login
//	accountctl [-server URL] whoami
//	accountctl [-server URL] logout
//
// The session token is persisted under the user's configuration directory,
// so an earlier login survives until logout or expiry. Passwords are read
// from the terminal without echo.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/mercato/mercato/internal/client/api"
	"github.com/mercato/mercato/internal/client/session"
	"github.com/mercato/mercato/internal/client/tokenstore"
	"github.com/mercato/mercato/pkg/pointer"
)

const defaultServer = "http://localhost:8080"

func main() {
	server := flag.String("server", defaultServer, "Mercato API base URL")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		usage()
		os.Exit(2)
	}

	tokenPath, err := tokenstore.DefaultPath()
	fatalOn(err)

	manager := session.NewManager(api.New(*server), tokenstore.NewFileStore(tokenPath))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Restore a previous session before running the command, so whoami and
	// logout see the persisted token.
	fatalOn(manager.RefreshFromStoredToken(ctx))

	switch command {
	case "register":
		err = runRegister(ctx, manager)
	case "login":
		err = runLogin(ctx, manager)
	case "whoami":
		err = runWhoami(manager)
	case "logout":
		err = runLogout(ctx, manager)
	default:
		usage()
		os.Exit(2)
	}

	fatalOn(err)
}

func runRegister(ctx context.Context, manager *session.Manager) error {
	reader := bufio.NewReader(os.Stdin)

	name, err := promptLine(reader, "Name")
	if err != nil {
		return err
	}
	email, err := promptLine(reader, "Email")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}

	err = manager.Register(ctx, session.RegisterInput{
		Name:            name,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}

	current := manager.Current()
	fmt.Printf("Registered and signed in as %s\n", current.User.Email)
	return nil
}

func runLogin(ctx context.Context, manager *session.Manager) error {
	reader := bufio.NewReader(os.Stdin)

	email, err := promptLine(reader, "Email")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	err = manager.Login(ctx, session.LoginInput{Email: email, Password: password})
	if err != nil {
		return err
	}

	fmt.Printf("Signed in as %s\n", manager.Current().User.Email)
	return nil
}

func runWhoami(manager *session.Manager) error {
	current := manager.Current()
	if current.State != session.StateAuthenticated {
		fmt.Println("Not signed in")
		return nil
	}

	user := current.User
	fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.Role)

	if address := pointer.Val(user.Address); address.City != "" {
		fmt.Printf("%s, %s %s, %s\n", address.Street, address.City, address.Zip, address.Country)
	}
	return nil
}

func runLogout(ctx context.Context, manager *session.Manager) error {
	wasAuthenticated := manager.Current().State == session.StateAuthenticated

	if err := manager.Logout(ctx); err != nil {
		// Local state is already cleared; the server call is best effort.
		fmt.Fprintf(os.Stderr, "warning: server-side revocation failed: %v\n", err)
	}

	if wasAuthenticated {
		fmt.Println("Signed out")
	} else {
		fmt.Println("Not signed in")
	}
	return nil
}

// promptLine reads one trimmed line from the reader.
func promptLine(reader *bufio.Reader, label string) (string, error) {
	fmt.Printf("%s: ", label)
	line, err := reader.ReadString('\n')
	if err != nil {
		// A final line without a trailing newline is still usable.
		if !errors.Is(err, io.EOF) || line == "" {
			return "", err
		}
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(label string) (string, error) {
	fmt.Print(label)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: accountctl [-server URL] <register|login|whoami|logout>")
}

func fatalOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "accountctl: %v\n", err)
		os.Exit(1)
	}
}
