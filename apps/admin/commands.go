package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	echoapi "github.com/trezcool/bursar/apps/api/echo"
	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
)

// hashPassword prints the hash to set as the admin password hash.
func (cli *commandLine) hashPassword(pwd string) error {
	hash, err := core.HashPassword(pwd)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, hash)
	return nil
}

func (cli *commandLine) token(uname string) error {
	uname = core.CleanString(uname, true /* lower */)
	token, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, uname))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}

// setFee writes straight to the store; running API servers pick it up from the change feed.
func (cli *commandLine) setFee(grade, term, year, amount string) error {
	amt, err := decimal.NewFromString(core.CleanString(amount))
	if err != nil {
		return errors.Wrapf(err, "invalid amount %q", amount)
	}
	f := fee.Fee{Amount: amt, Grade: grade, Term: term, Year: year}

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	if err = f.Validate(validate); err != nil {
		return err
	}

	if err = cli.fees.SaveFee(context.Background(), f); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s = %s\n", f.Key(), f.Amount.StringFixed(2))
	return nil
}
