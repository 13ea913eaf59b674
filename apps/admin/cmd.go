package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/user"
	"github.com/trezcool/juror/storage/database"
)

var (
	gooseRunFunc   = database.Run    // mockable
	isTerminalFunc = stdinIsTerminal // mockable

	errHelp = errors.New("help provided")
)

func stdinIsTerminal() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

type commandLine struct {
	store *database.Store
	users *user.Service
	now   core.Clock
	in    io.Reader
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, version...) on a SQL database")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -role student|supervisor [-email EMAIL] - register a user")
	fmt.Fprintln(cli.out, "  export [-o FILE] - write every record as a JSON document (stdout by default)")
	fmt.Fprintln(cli.out, "  import -i FILE - load a JSON document into an empty database")
	fmt.Fprintln(cli.out, "  reset [-yes] - delete every record")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserRole := addUserCmd.String("role", string(user.RoleStudent), "student or supervisor.")
	addUserEmail := addUserCmd.String("email", "", "The user's e-mail, for jury notifications (optional).")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportOut := exportCmd.String("o", "", "The output file. Defaults to stdout.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importIn := importCmd.String("i", "", "The JSON document to import.")

	resetCmd := flag.NewFlagSet("reset", flag.ContinueOnError)
	resetYes := resetCmd.Bool("yes", false, "Do not ask for confirmation.")

	for _, fs := range []*flag.FlagSet{addUserCmd, exportCmd, importCmd, resetCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, *addUserEmail, user.Role(*addUserRole))
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.export(*exportOut)
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importIn == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importFile(*importIn)
	case "reset":
		if err := resetCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.reset(*resetYes)
	default:
		cli.printUsage()
		return errHelp
	}
}
