package main

import (
	"os"
	"strconv"

	"github.com/AJenbo/phpantom-lsp/internal/server"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbosity := 1
	if raw := os.Getenv("PHPANTOM_LOG"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			verbosity = v
		}
	}
	commonlog.Configure(verbosity, nil)

	s := server.NewServer()
	s.Run()
}
