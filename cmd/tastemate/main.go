package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tastemate/tastemate-go/account"
	"github.com/tastemate/tastemate-go/communities"
	"github.com/tastemate/tastemate-go/credentials"
	"github.com/tastemate/tastemate-go/identity"
	"github.com/tastemate/tastemate-go/internal/config"
	"github.com/tastemate/tastemate-go/products"
	"github.com/tastemate/tastemate-go/rest"
	"github.com/tastemate/tastemate-go/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	// Local development convenience; absent files are fine.
	_ = godotenv.Load()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if c.GetEnv() != "DEV" {
		logger = logger.Level(zerolog.InfoLevel)
	}

	store, err := credentials.NewFile(c.GetCredentialsFile())
	if err != nil {
		return fmt.Errorf("credential store: %w", err)
	}

	provider, err := identity.New(c, identity.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("identity client: %w", err)
	}

	api, err := rest.New(c.GetAPIBaseURL(), store, provider,
		rest.WithHTTPClient(&http.Client{Timeout: c.GetHTTPTimeout()}),
		rest.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("rest client: %w", err)
	}

	sessionFlag := session.NewFlag(session.WithExpiryFunc(func() {
		logger.Warn().Msg("session expired, sign in again")
	}))

	accounts, err := account.NewService(provider, store, sessionFlag, account.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("account service: %w", err)
	}
	communityService, err := communities.NewService(api, store, sessionFlag, communities.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("communities service: %w", err)
	}
	productService, err := products.NewService(api, sessionFlag, products.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("products service: %w", err)
	}

	ctx := context.Background()

	if email, password := os.Getenv("TASTEMATE_EMAIL"), os.Getenv("TASTEMATE_PASSWORD"); email != "" {
		if err := accounts.SignIn(ctx, email, password); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		if errs := accounts.State().Errors; !errs.Empty() {
			return fmt.Errorf("sign in rejected: %v", errs.Form)
		}
		logger.Info().Str("email", email).Msg("signed in")
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		_, err := communityService.List(groupCtx)
		return err
	})
	group.Go(func() error {
		_, err := productService.List(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return fmt.Errorf("initial fetch: %w", err)
	}

	for _, community := range communityService.State().Items {
		logger.Info().
			Str("id", community.ID).
			Str("name", community.Name).
			Bool("joined", community.Joined).
			Msg("community")
	}
	for _, product := range productService.State().Items {
		logger.Info().
			Str("id", product.ID).
			Str("name", product.Name).
			Str("brand", product.Brand).
			Msg("product")
	}

	if user, err := accounts.CurrentUser(ctx); err == nil {
		logger.Info().Str("user", user.Email).Msg("session")
	}

	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
