package main

import (
	"context"
	"fmt"

	"github.com/kitabiapp/kitabi/core/admincp"
)

func (cli *commandLine) genCodes(n int) error {
	codes, err := admincp.NewService(cli.adminRepo).GenerateCodes(context.Background(), n)
	if err != nil {
		return err
	}
	for _, vc := range codes {
		fmt.Println(vc.Code)
	}
	return nil
}
