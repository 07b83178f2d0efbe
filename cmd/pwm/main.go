// Command pwm is a single-user password vault: items are stored one per
// encrypted file under a private directory, unlocked by one master
// passphrase.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pwmkit/pwm/internal/debug"
	"github.com/pwmkit/pwm/internal/report"
	"github.com/pwmkit/pwm/internal/sensitive"
	"github.com/pwmkit/pwm/internal/ui"
	"github.com/pwmkit/pwm/internal/vault"
)

func main() {
	report.OnShutdown(sensitive.ZeroizeAll)

	term := ui.New()
	report.OnShutdown(term.Restore)
	report.CatchSignals()

	// Keep secrets out of swap. Failure (typically a low RLIMIT_MEMLOCK)
	// is a documented limitation, not an error.
	if err := sensitive.LockMemory(); err != nil {
		debug.Errf(err, "could not lock process memory")
	}

	if len(os.Args) < 2 {
		printHelp()
		report.Shutdown(1)
	}

	if os.Args[1] == "help" {
		printHelp()
		report.Shutdown(0)
	}

	paths, err := vault.ResolvePaths()
	if err != nil {
		report.Halt("%v", err)
	}
	v := vault.New(paths, term)

	switch {
	case len(os.Args) == 2:
		switch os.Args[1] {
		case "init":
			err = v.Init()
		case "destroy":
			err = v.Destroy()
		case "list":
			err = v.List()
		case "config":
			err = v.Config()
		default:
			printHelp()
			report.Shutdown(1)
		}

	case len(os.Args) == 3:
		name := os.Args[2]
		switch os.Args[1] {
		case "create":
			err = v.Create(name)
		case "get":
			err = v.Get(name)
		case "update":
			err = v.Update(name)
		case "delete":
			err = v.Delete(name)
		default:
			printHelp()
			report.Shutdown(1)
		}

	default:
		printHelp()
		report.Shutdown(1)
	}

	handle(err)
}

// handle maps an operation result onto the failure classes: user mistakes
// get their own message, corruption and internal failures get the
// canonical ones. Every path runs the shutdown hooks.
func handle(err error) {
	if err == nil {
		report.Shutdown(0)
	}

	var uerr vault.UserError
	switch {
	case errors.As(err, &uerr):
		report.Halt("%s", uerr.Msg)
	case errors.Is(err, vault.ErrNotInitialized):
		report.Halt("The vault is not initialized.  Run '%s init' first.", utilName())
	case errors.Is(err, vault.ErrCorrupt):
		report.Corrupt(err)
	default:
		report.Internal(err)
	}
}

func utilName() string {
	return filepath.Base(os.Args[0])
}

func printHelp() {
	name := utilName()
	fmt.Fprintf(os.Stderr, `%[1]s
Securely creates/stores usernames and passwords for multiple items (such as websites).

   Usage:
       %[1]s help
               Prints this help message and exits.

       %[1]s init
               Initializes the vault.  This must be called once before any other command.

       %[1]s destroy
               Destroys all information for the vault.

       %[1]s list
               Lists all available items.

       %[1]s config
               Configures password generation.

       %[1]s create <itemName>
               Creates a new item.

       %[1]s get <itemName>
               Gets the stored info for the item.

       %[1]s update <itemName>
               Updates the info for the item.

       %[1]s delete <itemName>
               Deletes the item.
`, name)
}
