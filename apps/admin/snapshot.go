package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/juror/storage/snapshot"
)

var errNotConfirmed = errors.New("reset cancelled")

// export writes every record to path, or to the output when path is empty.
func (cli *commandLine) export(path string) error {
	s, err := snapshot.Take(context.Background(), cli.store.Stores, cli.now())
	if err != nil {
		return err
	}
	if path == "" {
		return snapshot.Encode(cli.out, s)
	}
	if err := snapshot.WriteFile(path, s); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "exported %d users, %d projects, %d deliverables, %d grades to %s\n",
		len(s.Users), len(s.Projects), len(s.Deliverables), len(s.Grades), path)
	return nil
}

func (cli *commandLine) importFile(path string) error {
	ctx := context.Background()
	s, err := snapshot.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}

	current, err := snapshot.Take(ctx, cli.store.Stores, cli.now())
	if err != nil {
		return err
	}
	if len(current.Users)+len(current.Projects)+len(current.Deliverables)+len(current.Grades) > 0 {
		return errors.New("the database is not empty, run reset first")
	}

	if err := snapshot.Restore(ctx, cli.store.Stores, s); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "imported %d users, %d projects, %d deliverables, %d grades\n",
		len(s.Users), len(s.Projects), len(s.Deliverables), len(s.Grades))
	return nil
}

// reset deletes every record once confirmed on an interactive terminal, or right away with -yes.
func (cli *commandLine) reset(yes bool) error {
	if !yes {
		if !isTerminalFunc() {
			return errors.New("stdin is not a terminal, pass -yes to reset anyway")
		}
		fmt.Fprint(cli.out, "Delete every user, project, deliverable and grade? [y/N]: ")
		answer, err := bufio.NewReader(cli.in).ReadString('\n')
		if err != nil && answer == "" {
			return errNotConfirmed
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
		default:
			return errNotConfirmed
		}
	}
	if err := cli.store.Reset(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "database reset")
	return nil
}
