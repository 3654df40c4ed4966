package main

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/repository"
)

func newStoreCmd(a *app) *cobra.Command {
	var dsn string
	open := func(cmd *cobra.Command) (repository.Store, error) {
		if dsn == "" {
			dsn = a.cfg.Store.DSN
		}
		if dsn == "" {
			return nil, errors.New("no store configured: set --store or DB_URL")
		}
		cfg := storeConfig(*a.cfg)
		cfg.DSN = dsn
		return repository.Open(cmd.Context(), cfg, a.logger)
	}

	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the results store",
	}
	storeCmd.PersistentFlags().StringVar(&dsn, "store", "", "store DSN (defaults to DB_URL)")

	ping := &cobra.Command{
		Use:   "ping",
		Short: "Check the store is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := repository.HealthCheck(cmd.Context(), s, 5*time.Second, a.logger); err != nil {
				return err
			}
			cmd.Println("ok")
			return nil
		},
	}

	var limit int
	batches := &cobra.Command{
		Use:   "batches",
		Short: "List recent batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			list, err := s.ListBatches(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				cmd.Println("No batches found.")
				return nil
			}
			for _, b := range list {
				cmd.Printf("%s  %-9s  %4d docs  %s  %s\n", b.ID, b.Status, b.Documents, b.StartedAt.Format(time.RFC3339), b.InputDir)
			}
			return nil
		},
	}
	batches.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of batches")

	documents := &cobra.Command{
		Use:   "documents [batch-id]",
		Short: "List the documents of one batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return errors.New("batch id must be a UUID")
			}
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			docs, err := s.ListDocuments(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, d := range docs {
				dup := ""
				if d.IsDuplicate {
					dup = " (duplicate)"
				}
				cmd.Printf("%s  %-7s %.2f  %s%s\n", d.DocumentID, d.ValidationStatus, d.ValidationScore, d.SourceFileName, dup)
			}
			return nil
		},
	}

	storeCmd.AddCommand(ping, batches, documents)
	return storeCmd
}
