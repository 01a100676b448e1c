// Command iglogin is a runnable example exercising all three subsystems in
// sequence: it logs in with ig.Client, persists the account's market
// reference data through cache.SQLiteStore, and streams live prices for
// that market through streamer.Channel, sharing the credential snapshot
// ig.Client.Login produced.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/igmarkets/ig-go/cache"
	"github.com/igmarkets/ig-go/ig"
	"github.com/igmarkets/ig-go/streamer"
)

func main() {
	var (
		identifier = flag.String("identifier", os.Getenv("IG_IDENTIFIER"), "IG account identifier")
		password   = flag.String("password", os.Getenv("IG_PASSWORD"), "IG account password")
		apiKey     = flag.String("api-key", os.Getenv("IG_API_KEY"), "IG API key")
		epic       = flag.String("epic", "CS.D.EURUSD.CFD.IP", "epic to stream prices for")
		dbPath     = flag.String("db", "iglogin.db", "sqlite cache path")
	)
	flag.Parse()

	if *identifier == "" || *password == "" || *apiKey == "" {
		log.Fatal("iglogin: -identifier, -password and -api-key (or IG_IDENTIFIER/IG_PASSWORD/IG_API_KEY) are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *identifier, *password, *apiKey, *epic, *dbPath); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, identifier, password, apiKey, epic, dbPath string) error {
	client := ig.NewClient(ig.ClientOpts{APIKey: apiKey, Logger: stdLogger{}})
	defer client.Close()

	if _, err := client.Login(ctx, identifier, password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	log.Println("logged in")

	accounts, err := client.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("fetch accounts: %w", err)
	}
	for _, a := range accounts {
		log.Printf("account %s (%s): balance %s %s", a.AccountID, a.AccountType, a.Balance, a.Currency)
	}

	details, err := client.Market(ctx, epic)
	if err != nil {
		return fmt.Errorf("fetch market %s: %w", epic, err)
	}

	store, err := cache.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate cache: %w", err)
	}

	if err := store.UpsertMarket(ctx, cache.Market{
		Epic:           details.Epic,
		InstrumentName: details.InstrumentName,
		InstrumentType: details.InstrumentType,
		Expiry:         details.Expiry,
		MarketStatus:   details.MarketStatus,
		Updated:        time.Now(),
	}); err != nil {
		return fmt.Errorf("cache market: %w", err)
	}
	log.Printf("cached market %s (%s)", details.Epic, details.InstrumentName)

	channel, err := streamer.NewChannel(client.Credentials().Get(), streamer.WithLogger(streamLogger{}))
	if err != nil {
		return fmt.Errorf("build streaming channel: %w", err)
	}
	defer channel.Close()

	if err := channel.Connect(ctx); err != nil {
		return fmt.Errorf("connect streaming channel: %w", err)
	}

	sub, err := channel.Subscribe(ctx, streamer.Merge, []string{"MARKET:" + epic}, []string{"BID", "OFFER", "UPDATE_TIME"}, true)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", epic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			log.Printf("%s bid=%s offer=%s", update.Item, fieldValue(update.Fields["BID"]), fieldValue(update.Fields["OFFER"]))
		}
	}
}

func fieldValue(f streamer.Field) string {
	if f.Value == nil {
		return ""
	}
	return *f.Value
}

type stdLogger struct{}

func (stdLogger) Infof(format string, args ...interface{})  { log.Printf("INFO "+format, args...) }
func (stdLogger) Warnf(format string, args ...interface{})  { log.Printf("WARN "+format, args...) }
func (stdLogger) Errorf(format string, args ...interface{}) { log.Printf("ERROR "+format, args...) }

type streamLogger struct{}

func (streamLogger) Infof(format string, args ...interface{})  { log.Printf("INFO "+format, args...) }
func (streamLogger) Warnf(format string, args ...interface{})  { log.Printf("WARN "+format, args...) }
func (streamLogger) Errorf(format string, args ...interface{}) { log.Printf("ERROR "+format, args...) }
