package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf *core.Config
	db   *sqlx.DB
	fees fee.Repository
	out  io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                  - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  hashpassword                                            - hash the admin password; it will be prompted")
	fmt.Fprintln(cli.out, "  token [-username USERNAME]                              - issue an API token")
	fmt.Fprintln(cli.out, "  setfee -grade GRADE -term TERM -year YEAR -amount AMOUNT - set a school fee")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenUname := tokenCmd.String("username", cli.conf.Server.AdminUsername, "The username the token is issued to.")

	setFeeCmd := flag.NewFlagSet("setfee", flag.ContinueOnError)
	setFeeGrade := setFeeCmd.String("grade", "", "The grade the fee applies to.")
	setFeeTerm := setFeeCmd.String("term", "", "The term the fee applies to.")
	setFeeYear := setFeeCmd.String("year", "", "The year the fee applies to (4 digits).")
	setFeeAmount := setFeeCmd.String("amount", "", "The fee amount, e.g. 650.00")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "hashpassword":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(string(pwd))
	case "token":
		tokenCmd.SetOutput(cli.out)
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUname == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenUname)
	case "setfee":
		setFeeCmd.SetOutput(cli.out)
		if err := setFeeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setFeeGrade == "" || *setFeeTerm == "" || *setFeeYear == "" || *setFeeAmount == "" {
			setFeeCmd.Usage()
			return errHelp
		}
		return cli.setFee(*setFeeGrade, *setFeeTerm, *setFeeYear, *setFeeAmount)
	default:
		cli.printUsage()
		return errHelp
	}
}
