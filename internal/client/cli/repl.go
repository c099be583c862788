package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Accounts(ctx context.Context) error
	ClearAccounts(ctx context.Context) error
	ListDecks(ctx context.Context) error
	ShowDeck(ctx context.Context) error
	AddDeck(ctx context.Context) error
	EditDeck(ctx context.Context) error
	DeleteDeck(ctx context.Context) error
	AddCard(ctx context.Context) error
	EditCard(ctx context.Context) error
	DeleteCard(ctx context.Context) error
	Study(ctx context.Context) error
	Profile(ctx context.Context) error
	EditProfile(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

const (
	helpGuest = "Available commands: signup, login, accounts, clearaccounts, status, exit"
	helpUser  = "Available commands: (l)ist, show, adddeck, editdeck, deletedeck, addcard, editcard, deletecard, study, " +
		"profile, editprofile, deleteaccount, sync, status, accounts, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the cramodoro CLI.
//
// It reads a line from in, parses the first token as the command, and
// dispatches to methods on a. Deck and profile commands require a session.
// The loop exits on EOF or when the user types "exit" or "quit".
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cramodoro %s> ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		eof := err != nil

		parts := strings.Fields(line)
		if len(parts) == 0 {
			if eof {
				return
			}
			continue
		}
		cmd := parts[0]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		report(dispatch(ctx, a, cmd))
		if eof {
			return
		}
	}
}

var errNeedLogin = errors.New("please log in first")

func dispatch(ctx context.Context, a execIface, cmd string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpUser)
		} else {
			printlnFn(helpGuest)
		}
		return nil
	case "signup", "register":
		return a.Signup(ctx)
	case "login":
		return a.Login(ctx)
	case "accounts":
		return a.Accounts(ctx)
	case "clearaccounts":
		return a.ClearAccounts(ctx)
	case "status":
		return a.Status(ctx)
	}

	var handler func(context.Context) error
	switch cmd {
	case "l", "list", "decks":
		handler = a.ListDecks
	case "show":
		handler = a.ShowDeck
	case "adddeck":
		handler = a.AddDeck
	case "editdeck":
		handler = a.EditDeck
	case "deletedeck":
		handler = a.DeleteDeck
	case "addcard":
		handler = a.AddCard
	case "editcard":
		handler = a.EditCard
	case "deletecard":
		handler = a.DeleteCard
	case "study":
		handler = a.Study
	case "profile":
		handler = a.Profile
	case "editprofile":
		handler = a.EditProfile
	case "deleteaccount":
		handler = a.DeleteAccount
	case "sync":
		handler = a.Sync
	case "logout":
		handler = a.Logout
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}

	if !a.isLoggedIn() {
		return errNeedLogin
	}
	return handler(ctx)
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", err)
	}
}
