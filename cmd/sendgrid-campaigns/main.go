// Package main is the entry point for the sendgrid-campaigns CLI.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shineum/sendgrid-campaigns/internal/azure"
	"github.com/shineum/sendgrid-campaigns/internal/campaign"
	"github.com/shineum/sendgrid-campaigns/internal/config"
	"github.com/shineum/sendgrid-campaigns/internal/extract"
	"github.com/shineum/sendgrid-campaigns/internal/sendgrid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "extract-html":
		err = runExtractHTML(os.Args[2:])
	case "campaign":
		err = runCampaign(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: sendgrid-campaigns <command> [flags]

Commands:
  extract-html   Extract HTML from an .eml file and upload inline images to the CDN
  campaign       List, inspect, create, update and schedule SendGrid campaigns

Run "sendgrid-campaigns <command> -h" for command flags.
`)
}

// runExtractHTML runs the eml-to-campaign-HTML extraction pipeline.
func runExtractHTML(args []string) error {
	fs := flag.NewFlagSet("extract-html", flag.ExitOnError)
	configPath := fs.String("json-config-file-path", "", "path to JSON config file")
	emlPath := fs.String("eml-file-path", "", "path to the input .eml file")
	htmlPath := fs.String("html-body-file-path", "", "path to save the extracted HTML file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *configPath == "" || *emlPath == "" || *htmlPath == "" {
		return fmt.Errorf("extract-html requires --json-config-file-path, --eml-file-path and --html-body-file-path")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)

	if err := cfg.RequireAzure(); err != nil {
		return err
	}

	store, err := azure.New(azure.Config{
		AccountName:   cfg.AzureStorageAccountName,
		AccountKey:    cfg.AzureStorageAccountKey,
		ContainerName: cfg.AzureContainerName,
		BlobPath:      cfg.AzureBlobPath,
	})
	if err != nil {
		return err
	}

	outPath, err := extract.New(store).Run(context.Background(), *emlPath, *htmlPath)
	if err != nil {
		return err
	}

	fmt.Printf("HTML content extracted to %s\n", outPath)
	return nil
}

// runCampaign dispatches the campaign subcommand per the provided fields.
func runCampaign(args []string) error {
	fs := flag.NewFlagSet("campaign", flag.ExitOnError)
	configPath := fs.String("json-config-file-path", "", "path to JSON config file")
	campaignID := fs.String("campaign-id", "", "campaign ID for getting details or updating")
	subject := fs.String("subject", "", "subject of the campaign")
	sender := fs.String("sender", "", "sender email")
	receiversPath := fs.String("receivers-file-path", "", "path to receivers file (format: 'Full Name <email@domain.com>')")
	htmlPath := fs.String("html-body-file-path", "", "path to HTML body file")
	scheduledAt := fs.String("scheduled-at", "", "scheduled send time (YYYY-MM-DD HH:MM:SS)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *configPath == "" {
		return fmt.Errorf("campaign requires --json-config-file-path")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)

	if err := cfg.RequireSendGrid(); err != nil {
		return err
	}

	manager := campaign.NewManager(sendgrid.New(cfg.SendGridAPIKey))
	result, err := manager.ProcessRequest(context.Background(), campaign.Request{
		CampaignID:        *campaignID,
		Subject:           *subject,
		Sender:            *sender,
		ReceiversFilePath: *receiversPath,
		HTMLBodyFilePath:  *htmlPath,
		ScheduledAt:       *scheduledAt,
	})
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

// printResult renders a processed campaign request: a list, a single
// record, or a status line depending on the resolved shape.
func printResult(result *campaign.Result) {
	switch result.Kind {
	case campaign.KindList:
		if len(result.Campaigns) == 0 {
			fmt.Println("\nNo campaigns found.")
			return
		}
		fmt.Println("\nCampaign List:")
		for _, c := range result.Campaigns {
			fmt.Printf("\nCampaign ID: %s\n", c.CampaignID)
			fmt.Printf("Subject: %s\n", c.Subject)
			fmt.Printf("Scheduled At: %s\n", c.ScheduledAt)
			fmt.Printf("From: %s\n", c.From)
		}

	case campaign.KindDetails:
		fmt.Println("\nCampaign Details:")
		printDetails(result.Campaign)

	case campaign.KindCreated:
		fmt.Printf("Created new campaign with ID: %s\n", result.CampaignID)
		if result.Campaign != nil {
			fmt.Println("\nFinal Campaign Details:")
			printDetails(result.Campaign)
		}

	case campaign.KindUpdated:
		fmt.Printf("Updated existing campaign with ID: %s\n", result.CampaignID)
		if result.Campaign != nil {
			fmt.Println("\nFinal Campaign Details:")
			printDetails(result.Campaign)
		}
	}
}

func printDetails(d *campaign.Details) {
	fmt.Printf("Campaign ID: %s\n", d.CampaignID)
	fmt.Printf("Subject: %s\n", d.Subject)
	fmt.Printf("Scheduled At: %s\n", d.ScheduledAt)
	fmt.Printf("From: %s\n", d.From)
	fmt.Printf("Status: %s\n", d.Status)
	if d.HTMLPreview != "" {
		fmt.Printf("HTML Content: %s\n", d.HTMLPreview)
	}
	if d.SendTo != nil && len(d.SendTo.ListIDs) > 0 {
		fmt.Printf("Send To: %s\n", strings.Join(d.SendTo.ListIDs, ", "))
	}
	if len(d.Stats) > 0 {
		if encoded, err := json.MarshalIndent(d.Stats, "", "  "); err == nil {
			fmt.Printf("Stats: %s\n", encoded)
		}
	}
	fmt.Printf("Last Checked: %s\n", d.LastChecked)
}

// setupLogger configures the global slog logger with JSON output on stderr
// at the configured level. Stdout stays reserved for command output.
func setupLogger(level string) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info", "":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
