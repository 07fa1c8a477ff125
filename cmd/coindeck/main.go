package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bobmcallan/coindeck/internal/clients/assistant"
	"github.com/bobmcallan/coindeck/internal/common"
	"github.com/bobmcallan/coindeck/internal/models"
	"github.com/bobmcallan/coindeck/internal/storage/badger"
	"github.com/bobmcallan/coindeck/internal/stream"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: coindeck <command> [args]

commands:
  login <username> <password>     authenticate and persist the session
  register <username> <password>  create a new account
  logout                          clear the stored session
  whoami                          print the current identity
  watch                           stream live portfolio snapshots
  transactions [--sync|--orders]  print transaction history
  export                          print the CSV export
  import-orders <exchange> <csv>  upload an order CSV
  exchanges [--names]             list exchange accounts (or supported names)
  add-exchange <name> <key> <secret> [extra]
  rm-exchange <name>
  version                         print build information`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if os.Args[1] == "version" {
		fmt.Println(common.GetFullVersion())
		return
	}

	configPath := os.Getenv("COINDECK_CONFIG")
	cfg, err := common.LoadConfig(configPath, "coindeck.toml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.Logging.Level)

	store, err := badger.NewStore(logger, cfg.Storage.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open local store")
	}
	defer store.Close()

	tokens := badger.NewTokenStorage(store, logger)
	client := assistant.NewClient(cfg.Server.BaseURL, tokens,
		assistant.WithLogger(logger),
		assistant.WithTimeout(cfg.Server.GetTimeout()),
	)

	app := &cli{
		cfg:    cfg,
		logger: logger,
		store:  store,
		client: client,
	}

	ctx := context.Background()
	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

type cli struct {
	cfg    *common.Config
	logger *common.Logger
	store  *badger.Store
	client *assistant.Client
}

func (a *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		return a.client.Logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "watch":
		return a.watch(ctx)
	case "transactions":
		return a.transactions(ctx, args)
	case "export":
		return a.export(ctx)
	case "import-orders":
		return a.importOrders(ctx, args)
	case "exchanges":
		return a.exchanges(ctx, args)
	case "add-exchange":
		return a.addExchange(ctx, args)
	case "rm-exchange":
		return a.rmExchange(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *cli) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: coindeck login <username> <password>")
	}
	claims, err := a.client.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (currency %s)\n", claims.Username, claims.LocalCurrency)
	return nil
}

func (a *cli) register(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: coindeck register <username> <password>")
	}
	result, err := a.client.Register(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if !result.Success {
		fmt.Printf("Registration rejected: %s\n", result.Error)
		return nil
	}
	fmt.Println("Registered. Run 'coindeck login' to start a session.")
	return nil
}

func (a *cli) whoami(ctx context.Context) error {
	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (id %d, currency %s)\n", user.Username, user.ID, user.LocalCurrency)
	return nil
}

// watch opens the portfolio push channel and prints each snapshot until
// interrupted or the channel drops. A cached snapshot is shown immediately
// while the channel connects.
func (a *cli) watch(ctx context.Context) error {
	identity, err := a.client.CurrentUser(ctx)
	if err != nil {
		return err
	}

	cache := badger.NewSnapshotStorage(a.store, a.logger)
	if cached, err := cache.Load(ctx); err == nil && cached != nil {
		fmt.Println("Last known portfolio (cached):")
		printSnapshot(cached)
	}

	ps := stream.New(a.cfg.Server.StreamURL,
		stream.WithLogger(a.logger),
		stream.WithSnapshotCache(cache),
	)
	if err := ps.Start(ctx, identity); err != nil {
		return err
	}
	defer ps.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case snapshot := <-ps.Snapshots():
			printSnapshot(snapshot)
		case err := <-ps.Errors():
			if err == stream.ErrChannelClosed {
				fmt.Println("Portfolio channel closed; re-run 'coindeck watch' to reconnect.")
				return nil
			}
			a.logger.Warn().Err(err).Msg("Stream diagnostic")
		case <-sigChan:
			return nil
		}
	}
}

func printSnapshot(s *models.PortfolioSnapshot) {
	fmt.Printf("Net worth: %s\n", s.NetWorth.StringFixed(2))
	for _, ex := range s.Exchanges {
		fmt.Printf("  %-12s total %s\n", ex.Name, ex.Total.StringFixed(2))
		for _, coin := range ex.Coins {
			fmt.Printf("    %-6s available %s total %s\n",
				coin.Currency, coin.Available.String(), coin.Total.String())
		}
	}
	for _, w := range s.Wallets {
		fmt.Printf("  wallet %-6s balance %s worth %s\n",
			w.Currency, w.Balance.String(), w.NetWorth.StringFixed(2))
	}
}

func (a *cli) transactions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transactions", flag.ContinueOnError)
	sync := fs.Bool("sync", false, "trigger a server-side sync first")
	orders := fs.Bool("orders", false, "show exchange order history instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var records []*models.TransactionRecord
	var err error
	switch {
	case *orders:
		records, err = a.client.OrderHistory(ctx)
	case *sync:
		records, err = a.client.SyncTransactions(ctx)
	default:
		records, err = a.client.Transactions(ctx)
	}
	if err != nil {
		return err
	}

	for _, tx := range records {
		pair := ""
		if tx.CurrencyPair != nil {
			pair = tx.CurrencyPair.Base + "-" + tx.CurrencyPair.Quote
		}
		fmt.Printf("%s  %-10s %-8s %-10s qty %s @ %s total %s %s\n",
			tx.Date, tx.Type, tx.Category, pair,
			tx.Quantity, tx.Price, tx.Total, tx.TotalCurrency)
	}
	return nil
}

func (a *cli) export(ctx context.Context) error {
	csv, err := a.client.ExportTransactions(ctx)
	if err != nil {
		return err
	}
	fmt.Print(csv)
	return nil
}

func (a *cli) importOrders(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: coindeck import-orders <exchange> <csv-file>")
	}
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	records, err := a.client.ImportOrders(ctx, args[0], f)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d orders\n", len(records))
	return nil
}

func (a *cli) exchanges(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("exchanges", flag.ContinueOnError)
	names := fs.Bool("names", false, "list supported exchange names")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *names {
		supported, err := a.client.ExchangeNames(ctx)
		if err != nil {
			return err
		}
		for _, name := range supported {
			fmt.Println(name)
		}
		return nil
	}

	accounts, err := a.client.UserExchanges(ctx)
	if err != nil {
		return err
	}
	for _, ex := range accounts {
		fmt.Printf("%-12s key %s\n", ex.Name, ex.Key)
	}
	return nil
}

func (a *cli) addExchange(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("usage: coindeck add-exchange <name> <key> <secret> [extra]")
	}
	ex := &models.UserExchange{Name: args[0], Key: args[1], Secret: args[2]}
	if len(args) == 4 {
		ex.Extra = args[3]
	}
	if err := a.client.CreateExchange(ctx, ex); err != nil {
		return err
	}
	fmt.Printf("Exchange %s added\n", ex.Name)
	return nil
}

func (a *cli) rmExchange(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: coindeck rm-exchange <name>")
	}
	if err := a.client.DeleteExchange(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Exchange %s removed\n", args[0])
	return nil
}
