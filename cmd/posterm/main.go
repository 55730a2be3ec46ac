// Command posterm is the point-of-sale terminal. It reads hardware-wedge
// scans (Enter-terminated codes) from stdin, resolves them against the
// backend and assembles a bill interactively.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/loomoretail/loomopos/config"
	"github.com/loomoretail/loomopos/internal/billing"
	"github.com/loomoretail/loomopos/internal/scanner"
	"github.com/loomoretail/loomopos/internal/terminal"
	"github.com/loomoretail/loomopos/pkg/client"
)

var (
	conffile = flag.String("c", "", "config yaml file")
	username = flag.String("u", "admin", "backend username")
	password = flag.String("p", "", "backend password")
)

func main() {
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)
	defer func() { _ = logger.Sync() }()

	cfg := config.LoadConfig(*conffile)

	api := client.New(cfg.Terminal.Endpoint, client.NewMemorySession(),
		time.Duration(cfg.Terminal.RequestTimeout)*time.Second)
	api.OnUnauthorized = func() {
		fmt.Println("! session expired, please restart and log in again")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *password != "" {
		if err := api.Login(ctx, *username, *password); err != nil {
			fmt.Printf("! login failed: %v\n", err)
			os.Exit(1)
		}
	}

	reconciler := billing.NewReconciler(&billing.RemoteResolver{Client: api}, billing.ReconcilerConfig{
		ResolveTimeout: time.Duration(cfg.Terminal.RequestTimeout) * time.Second,
	})
	reconciler.OnChange = func(p billing.PendingScan) {
		switch p.State {
		case billing.StateLoading:
			fmt.Printf("  resolving %s ...\n", p.Code)
		case billing.StateResolved:
			fmt.Printf("  %s — %s (stock %d). :add [price] / :next [price] / :cancel\n",
				p.Item.Name, p.Item.Price.StringFixed(2), p.Stock)
		case billing.StateNotFound:
			fmt.Printf("  no catalog match; %s at manual price. :add <price> / :cancel\n", p.Item.Name)
		case billing.StateError:
			fmt.Printf("  ! lookup failed: %v (rescan to retry or :cancel)\n", p.Err)
		}
	}

	bill := billing.NewBill()
	bill.OnNotice = func(n billing.Notice) {
		fmt.Printf("  ! %s\n", n.Message)
	}

	// The stdin wedge is posterm's only input device; the camera viewport
	// is for terminals that have one, whatever the config says.
	bus := EventBus.New()
	_ = bus.Subscribe(scanner.TopicDetected, func(code, path string) {
		fmt.Printf("  scanned %s (%s)\n", code, path)
	})
	_ = bus.Subscribe(scanner.TopicScanError, func(msg string) {
		fmt.Printf("  ! %s\n", msg)
	})

	var term *terminal.Terminal
	session := scanner.NewSession(scanner.Device{}, scanner.Config{
		Feedback:      scanner.TerminalFeedback{W: os.Stdout},
		Bus:           bus,
		Mobile:        false,
		PauseOnDetect: true,
		OnDetect: func(code string) {
			term.OnCode(ctx, code)
		},
	})

	term = terminal.New(terminal.Config{
		Session:    session,
		Bill:       bill,
		Reconciler: reconciler,
		Orders:     api,
		Mobile:     false,
	})
	term.FocusWedge = func() {
		fmt.Print("scan> ")
	}
	defer term.Shutdown()

	fmt.Println("LOOMO POS terminal. Scan a code, or :help for commands.")
	fmt.Print("scan> ")

	input := bufio.NewScanner(os.Stdin)
	for input.Scan() {
		line := strings.TrimSpace(input.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, ":"):
			if !runCommand(ctx, term, bill, line) {
				return
			}
		default:
			session.Submit(line)
		}
		fmt.Print("scan> ")
	}
}

func runCommand(ctx context.Context, term *terminal.Terminal, bill *billing.Bill, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case ":quit", ":q":
		return false
	case ":help":
		fmt.Println("  :add [price]   confirm pending scan into the bill")
		fmt.Println("  :next [price]  confirm and keep scanning")
		fmt.Println("  :cancel        discard pending scan")
		fmt.Println("  :phone <n>     set customer phone (10 digits)")
		fmt.Println("  :name <s>      set customer name")
		fmt.Println("  :discount <v>  set discount")
		fmt.Println("  :quick <v>     freehand subtotal, no items")
		fmt.Println("  :bill          show current bill")
		fmt.Println("  :submit        create the order")
	case ":add", ":next":
		price := term.Pending().Item.Price
		if len(args) > 0 {
			p, err := decimal.NewFromString(args[0])
			if err != nil {
				fmt.Println("  ! invalid price")
				return true
			}
			price = p
		}
		var added bool
		if cmd == ":next" {
			added = term.AddAndScanNext(ctx, price)
		} else {
			added = term.AddToBill(price)
		}
		if !added {
			fmt.Println("  ! nothing confirmable pending")
		}
	case ":cancel":
		term.CancelPending(ctx)
	case ":phone":
		name, _, dob := bill.Customer()
		if len(args) > 0 {
			bill.SetCustomer(name, args[0], dob)
		}
	case ":name":
		_, phone, dob := bill.Customer()
		bill.SetCustomer(strings.Join(args, " "), phone, dob)
	case ":discount":
		if len(args) > 0 {
			if d, err := decimal.NewFromString(args[0]); err == nil {
				bill.SetDiscount(d)
			}
		}
	case ":quick":
		if len(args) > 0 {
			if v, err := decimal.NewFromString(args[0]); err == nil {
				bill.SetQuickSubTotal(v)
			}
		}
	case ":bill":
		for _, it := range bill.Items() {
			fmt.Printf("  %dx %-30s @ %s = %s\n", it.Quantity, it.Name,
				it.Price.StringFixed(2), it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2))
		}
		fmt.Printf("  subtotal %s  discount %s  total %s\n",
			bill.SubTotal().StringFixed(2), bill.Discount().StringFixed(2), bill.Total().StringFixed(2))
	case ":submit":
		result, err := term.SubmitBill(ctx)
		if err != nil {
			fmt.Printf("  ! %v\n", err)
			return true
		}
		fmt.Printf("  invoice %s total %.2f (%s)\n", result.InvoiceNumber, result.Total, result.Status)
	default:
		fmt.Println("  ! unknown command, :help")
	}
	return true
}
