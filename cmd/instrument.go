package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"instrument-tracker/internal/export"
	"instrument-tracker/internal/importer"
	"instrument-tracker/internal/inventory"
	"instrument-tracker/internal/models"
	"instrument-tracker/internal/reference"
)

var instrumentCmd = &cobra.Command{
	Use:     "instrument",
	Aliases: []string{"instruments"},
	Short:   "Manage instruments",
	Long:    `List, add, calibrate, update, delete, import and export instruments.`,
}

func printItems(items []inventory.Item) {
	if len(items) == 0 {
		fmt.Println("No instruments found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLOCATION\tSTATUS\tLAST\tNEXT")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.Name, item.Location, item.Status.Status.Label(),
			dateOrDash(item.LastCalibrationDate), dateOrDash(item.Status.NextCalibration))
	}
	w.Flush()
}

func printItem(item *inventory.Item) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", item.ID)
	fmt.Fprintf(w, "Name\t%s\n", item.Name)
	fmt.Fprintf(w, "Location\t%s\n", item.Location)
	fmt.Fprintf(w, "Status\t%s\n", item.Status.Status.Label())
	fmt.Fprintf(w, "\t%s\n", item.Status.Message)
	fmt.Fprintf(w, "Calibration required\t%t\n", item.CalibrationRequired)
	fmt.Fprintf(w, "Calibration period\t%d days\n", item.CalibrationPeriod)
	fmt.Fprintf(w, "Last calibration\t%s\n", dateOrDash(item.LastCalibrationDate))
	fmt.Fprintf(w, "Next calibration\t%s\n", dateOrDash(item.Status.NextCalibration))
	if item.Notes != nil {
		fmt.Fprintf(w, "Notes\t%s\n", *item.Notes)
	}
	fmt.Fprintf(w, "Reference\t%s\n", reference.URL(cfg.BaseURL, item.ID))
	w.Flush()
}

func dateOrDash(d *models.Date) string {
	if d == nil || d.IsZero() {
		return "-"
	}
	return d.String()
}

func dateFlag(cmd *cobra.Command, name string) *models.Date {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil
	}
	d, err := models.ParseDate(value)
	if err != nil {
		fail("Invalid --"+name, err)
	}
	return &d
}

var instrumentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List instruments",
	Run: func(cmd *cobra.Command, args []string) {
		query, _ := cmd.Flags().GetString("query")
		status, _ := cmd.Flags().GetString("status")

		report, err := svc.List(context.Background(), query, status)
		if err != nil {
			fail("Error listing instruments", err)
		}
		printItems(report.Items)
	},
}

var instrumentShowCmd = &cobra.Command{
	Use:   "show [id or reference]",
	Short: "Show an instrument and its calibration status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		item, err := svc.Resolve(context.Background(), args[0])
		if err != nil {
			fail("Error showing instrument", err, "code", args[0])
		}
		printItem(item)
	},
}

var instrumentAddCmd = &cobra.Command{
	Use:   "add [name] [location]",
	Short: "Add a new instrument",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		noCalibration, _ := cmd.Flags().GetBool("no-calibration")
		period, _ := cmd.Flags().GetInt("period")
		notes, _ := cmd.Flags().GetString("notes")

		item, err := svc.Add(context.Background(), models.NewInstrument{
			Name:                args[0],
			Location:            args[1],
			CalibrationRequired: !noCalibration,
			CalibrationPeriod:   period,
			LastCalibrationDate: dateFlag(cmd, "last"),
			Notes:               models.NonEmpty(notes),
		})
		if err != nil {
			fail("Error adding instrument", err)
		}
		fmt.Printf("Instrument '%s' created with ID %s\n", item.Name, item.ID)
		fmt.Println(reference.URL(cfg.BaseURL, item.ID))
	},
}

var instrumentCalibrateCmd = &cobra.Command{
	Use:   "calibrate [id]",
	Short: "Record a calibration",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		by, _ := cmd.Flags().GetString("by")
		cleaned, _ := cmd.Flags().GetBool("cleaned")
		notes, _ := cmd.Flags().GetString("notes")

		date := dateFlag(cmd, "date")
		if date == nil {
			date = models.DateOf(svc.Now()).Ptr()
		}

		item, err := svc.Calibrate(context.Background(), args[0], models.CalibrationForm{
			Date:        date,
			PerformedBy: by,
			Cleaned:     cleaned,
			Notes:       notes,
		})
		if err != nil {
			fail("Error recording calibration", err, "id", args[0])
		}
		printItem(item)
	},
}

var instrumentUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change instrument details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var upd models.InstrumentUpdate
		flags := cmd.Flags()
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			upd.Name = &v
		}
		if flags.Changed("location") {
			v, _ := flags.GetString("location")
			upd.Location = &v
		}
		if flags.Changed("required") {
			v, _ := flags.GetBool("required")
			upd.CalibrationRequired = &v
		}
		if flags.Changed("period") {
			v, _ := flags.GetInt("period")
			upd.CalibrationPeriod = &v
		}
		if flags.Changed("notes") {
			v, _ := flags.GetString("notes")
			upd.Notes = &v
		}

		item, err := svc.Update(context.Background(), args[0], upd)
		if err != nil {
			fail("Error updating instrument", err, "id", args[0])
		}
		printItem(item)
	},
}

var instrumentDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an instrument permanently",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inst, err := svc.Delete(context.Background(), args[0])
		if err != nil {
			fail("Error deleting instrument", err, "id", args[0])
		}
		fmt.Printf("Instrument '%s' deleted.\n", inst.Name)
	},
}

var instrumentImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import instruments from a CSV or YAML file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		result, err := importer.ReadFile(args[0])
		if err != nil {
			fail("Error reading import file", err, "file", args[0])
		}
		for _, rowErr := range result.Errors {
			fmt.Fprintf(os.Stderr, "Skipped %v\n", rowErr)
		}

		ctx := context.Background()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LINE\tID\tNAME\tLOCATION")
		created, failed := 0, len(result.Errors)
		for _, row := range result.Rows {
			if dryRun {
				fmt.Fprintf(w, "%d\t-\t%s\t%s\n", row.Line, row.Instrument.Name, row.Instrument.Location)
				continue
			}
			item, err := svc.Add(ctx, row.Instrument)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Skipped line %d: %v\n", row.Line, err)
				failed++
				continue
			}
			created++
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", row.Line, item.ID, item.Name, item.Location)
		}
		w.Flush()

		if dryRun {
			fmt.Printf("%d instruments would be imported, %d rows skipped.\n", len(result.Rows), failed)
			return
		}
		fmt.Printf("%d instruments imported, %d rows skipped.\n", created, failed)
		if failed > 0 {
			os.Exit(1)
		}
	},
}

var instrumentExportCmd = &cobra.Command{
	Use:   "export [file.xlsx]",
	Short: "Export instruments to an Excel workbook",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query, _ := cmd.Flags().GetString("query")
		status, _ := cmd.Flags().GetString("status")

		report, err := svc.List(context.Background(), query, status)
		if err != nil {
			fail("Error listing instruments", err)
		}

		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, report.Items, report.Stats); err != nil {
			fail("Error writing workbook", err)
		}
		if err := os.WriteFile(args[0], buf.Bytes(), 0644); err != nil {
			fail("Error saving workbook", err, "file", args[0])
		}
		fmt.Printf("%d instruments exported to %s\n", len(report.Items), args[0])
	},
}

var instrumentLabelCmd = &cobra.Command{
	Use:   "label [id] [file.pdf]",
	Short: "Print a QR label for an instrument",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		item, err := svc.Get(context.Background(), args[0])
		if err != nil {
			fail("Error loading instrument", err, "id", args[0])
		}

		url := reference.URL(cfg.BaseURL, item.ID)
		png, err := reference.QRCode(url, cfg.QRSize)
		if err != nil {
			fail("Error generating QR code", err)
		}

		var buf bytes.Buffer
		if err := export.LabelPDF(&buf, item, url, png); err != nil {
			fail("Error writing label", err)
		}
		if err := os.WriteFile(args[1], buf.Bytes(), 0644); err != nil {
			fail("Error saving label", err, "file", args[1])
		}
		fmt.Printf("Label for '%s' saved to %s\n", item.Name, args[1])
	},
}

var instrumentStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show calibration statistics and alerts",
	Run: func(cmd *cobra.Command, args []string) {
		report, err := svc.List(context.Background(), "", "")
		if err != nil {
			fail("Error listing instruments", err)
		}

		s := report.Stats
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Total\t%d\n", s.Total)
		fmt.Fprintf(w, "Ready\t%d\n", s.Ready)
		fmt.Fprintf(w, "Due soon\t%d\n", s.DueSoon)
		fmt.Fprintf(w, "Overdue\t%d\n", s.Overdue)
		fmt.Fprintf(w, "Not ready\t%d\n", s.NotReadyTotal)
		fmt.Fprintf(w, "Never calibrated\t%d\n", s.NeverCalibrated)
		w.Flush()

		if len(report.Alerts) > 0 {
			fmt.Println()
			fmt.Println("Needs attention:")
			printItems(report.Alerts)
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{instrumentListCmd, instrumentExportCmd} {
		c.Flags().StringP("query", "q", "", "search name, location or notes")
		c.Flags().StringP("status", "s", "", "status filter: all, ready, not_ready, due_soon, overdue")
	}

	instrumentAddCmd.Flags().Int("period", models.DefaultCalibrationPeriod, "calibration period in days")
	instrumentAddCmd.Flags().Bool("no-calibration", false, "instrument needs no calibration")
	instrumentAddCmd.Flags().String("last", "", "last calibration date (YYYY-MM-DD)")
	instrumentAddCmd.Flags().String("notes", "", "free text notes")

	instrumentCalibrateCmd.Flags().String("date", "", "calibration date (YYYY-MM-DD), default today")
	instrumentCalibrateCmd.Flags().String("by", "", "who performed the calibration")
	instrumentCalibrateCmd.Flags().Bool("cleaned", false, "instrument was cleaned")
	instrumentCalibrateCmd.Flags().String("notes", "", "additional notes")

	instrumentUpdateCmd.Flags().String("name", "", "new name")
	instrumentUpdateCmd.Flags().String("location", "", "new location")
	instrumentUpdateCmd.Flags().Bool("required", true, "whether calibration is required")
	instrumentUpdateCmd.Flags().Int("period", models.DefaultCalibrationPeriod, "calibration period in days")
	instrumentUpdateCmd.Flags().String("notes", "", "replace notes, empty clears them")

	instrumentImportCmd.Flags().Bool("dry-run", false, "parse the file without creating instruments")

	instrumentCmd.AddCommand(
		instrumentListCmd,
		instrumentShowCmd,
		instrumentAddCmd,
		instrumentCalibrateCmd,
		instrumentUpdateCmd,
		instrumentDeleteCmd,
		instrumentImportCmd,
		instrumentExportCmd,
		instrumentLabelCmd,
		instrumentStatsCmd,
	)
	rootCmd.AddCommand(instrumentCmd)
}
