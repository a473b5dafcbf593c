// Package cli implements the interactive terminal client of the accounts
// service.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/accounts/internal/client/client"
	"github.com/dmitrijs2005/accounts/internal/client/config"
)

type App struct {
	config *config.Config
	api    *client.Client
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	api, err := client.New(c.ServerURL, client.WithTimeout(c.RequestTimeout))
	if err != nil {
		return nil, err
	}
	return &App{config: c, api: api, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.Tokens() != nil
}

// Run reads commands from stdin until exit or EOF.
func (a *App) Run(ctx context.Context) {
	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return "logged in"
	}
	return "guest"
}
