package main

import (
	"deployable-sql/cmd"

	_ "github.com/microsoft/go-mssqldb"
)

func main() {
	cmd.Execute()
}
