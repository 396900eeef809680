package main

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-circulation/library"
)

// openManager loads config and opens the database for one command run.
func openManager(configPath string, verbose bool) (*library.LibraryManager, error) {
	cfg, err := library.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return library.NewLibraryManager(cfg, library.WithLogger(newLogger(verbose)))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q", s)
	}
	return id, nil
}

func parseDateFlag(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func parseKind(s string) (library.Kind, error) {
	switch strings.ToLower(s) {
	case "book":
		return library.KindBook, nil
	case "member":
		return library.KindMember, nil
	default:
		return "", fmt.Errorf("unknown kind %q, want book or member", s)
	}
}

func newAddBookCommand(configPath *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "add-book <title> <author>",
		Short: "Register a new book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(*configPath, *verbose)
			if err != nil {
				return err
			}
			defer mgr.Close()

			id, err := mgr.AddBook(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Added book %d: %s by %s\n", id, args[0], args[1])
			return nil
		},
	}
}

func newAddMemberCommand(configPath *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "add-member <first-name> <last-name>",
		Short: "Register a new member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(*configPath, *verbose)
			if err != nil {
				return err
			}
			defer mgr.Close()

			id, err := mgr.AddMember(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Added member %d: %s %s\n", id, args[0], args[1])
			return nil
		},
	}
}

func newSearchCommand(configPath *string, verbose *bool) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search books or members by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			mgr, err := openManager(*configPath, *verbose)
			if err != nil {
				return err
			}
			defer mgr.Close()

			switch k {
			case library.KindBook:
				books, err := mgr.SearchBooks(args[0])
				if err != nil {
					return err
				}
				for _, b := range books {
					fmt.Println(library.PrettyBook(b))
				}
				fmt.Printf("%d result(s)\n", len(books))
			case library.KindMember:
				members, err := mgr.SearchMembers(args[0])
				if err != nil {
					return err
				}
				for _, m := range members {
					fmt.Println(library.PrettyMember(m))
				}
				fmt.Printf("%d result(s)\n", len(members))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "book", "what to search: book or member")
	return cmd
}

func newCheckoutCommand(configPath *string, verbose *bool) *cobra.Command {
	var dueIn int
	cmd := &cobra.Command{
		Use:   "checkout <book-id> <member-id>",
		Short: "Check a book out to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID(args[0])
			if err != nil {
				return err
			}
			memberID, err := parseID(args[1])
			if err != nil {
				return err
			}
			mgr, err := openManager(*configPath, *verbose)
			if err != nil {
				return err
			}
			defer mgr.Close()

			var loan *library.Loan
			if cmd.Flags().Changed("due-in") {
				today := time.Now().UTC().Truncate(24 * time.Hour)
				loan, err = mgr.Checkout(bookID, memberID, today, today.AddDate(0, 0, dueIn))
			} else {
				loan, err = mgr.CheckoutToday(bookID, memberID)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Loan %d opened: %s\n", loan.ID, library.PrettyLoan(loan))
			return nil
		},
	}
	cmd.Flags().IntVar(&dueIn, "due-in", 0, "loan period in days (overrides config)")
	return cmd
}

func newReturnCommand(configPath *string, verbose *bool) *cobra.Command {
	var onDate string
	cmd := &cobra.Command{
		Use:   "return <loan-id>",
		Short: "Close an open loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := parseID(args[0])
			if err != nil {
				return err
			}
			returnDate := time.Now().UTC().Truncate(24 * time.Hour)
			if onDate != "" {
				if returnDate, err = parseDateFlag(onDate); err != nil {
					return err
				}
			}
			mgr, err := openManager(*configPath, *verbose)
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.ReturnLoan(loanID, returnDate); err != nil {
				return err
			}
			fmt.Printf("Loan %d returned\n", loanID)
			return nil
		},
	}
	cmd.Flags().StringVar(&onDate, "on", "", "return date (YYYY-MM-DD, default today)")
	return cmd
}

func newOverdueCommand(configPath *string, verbose *bool) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List open loans past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOfDate := time.Now().UTC().Truncate(24 * time.Hour)
			if asOf != "" {
				var err error
				if asOfDate, err = parseDateFlag(asOf); err != nil {
					return err
				}
			}
			mgr, err := openManager(*configPath, *verbose)
			if err != nil {
				return err
			}
			defer mgr.Close()

			loans, err := mgr.ListOverdue(asOfDate)
			if err != nil {
				return err
			}
			for _, l := range loans {
				fmt.Printf("%s  %d day(s) overdue\n", library.PrettyLoan(l), l.DaysOverdue(asOfDate))
			}
			fmt.Printf("%d overdue loan(s)\n", len(loans))
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "reference date (YYYY-MM-DD, default today)")
	return cmd
}

func newLoansCommand(configPath *string, verbose *bool) *cobra.Command {
	var (
		memberID int64
		bookID   int64
		openOnly bool
	)
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "List loans for a member or a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (memberID == 0) == (bookID == 0) {
				return fmt.Errorf("specify exactly one of --member or --book")
			}
			mgr, err := openManager(*configPath, *verbose)
			if err != nil {
				return err
			}
			defer mgr.Close()

			var loans []*library.Loan
			if memberID != 0 {
				loans, err = mgr.LoansByMember(memberID, openOnly)
			} else {
				loans, err = mgr.LoansByBook(bookID, openOnly)
			}
			if err != nil {
				return err
			}
			for _, l := range loans {
				fmt.Println(library.PrettyLoan(l))
			}
			fmt.Printf("%d loan(s)\n", len(loans))
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "list loans held by this member")
	cmd.Flags().Int64Var(&bookID, "book", 0, "list loan history of this book")
	cmd.Flags().BoolVar(&openOnly, "open", false, "only open loans")
	return cmd
}

func newSetActiveCommand(configPath *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "set-active <book|member> <id> <true|false>",
		Short: "Activate or deactivate a book or member",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			active, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("invalid flag %q, want true or false", args[2])
			}
			mgr, err := openManager(*configPath, *verbose)
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.SetActive(kind, id, active); err != nil {
				return err
			}
			fmt.Printf("%s %d active=%t\n", kind, id, active)
			return nil
		},
	}
}

func newSetFinesCommand(configPath *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "set-fines <member-id> <amount>",
		Short: "Overwrite a member's fines balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			mgr, err := openManager(*configPath, *verbose)
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.SetFines(memberID, amount); err != nil {
				return err
			}
			fmt.Printf("Member %d fines set to %d\n", memberID, amount)
			return nil
		},
	}
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func newSetPasswordCommand(configPath *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "set-password <member-id>",
		Short: "Set a member's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, err := parseID(args[0])
			if err != nil {
				return err
			}
			password, err := readPassword("New password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}
			mgr, err := openManager(*configPath, *verbose)
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.SetMemberPassword(memberID, password); err != nil {
				return err
			}
			fmt.Printf("Password set for member %d\n", memberID)
			return nil
		},
	}
}
