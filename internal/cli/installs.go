package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewInstallsCmd создаёт группу команд для удалённых установок через API.
func NewInstallsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "installs",
		Short: "Queue installs and inspect the install journal",
	}

	cmd.AddCommand(
		newInstallsEnqueueCmd(clientFn, outputFn),
		newInstallsListCmd(clientFn, outputFn),
		newInstallsShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newInstallsEnqueueCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req AddonRequest

	cmd := &cobra.Command{
		Use:   "enqueue [ADDON_TOKEN]",
		Short: "Queue an install for the workers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if len(args) == 1 {
				req.AddonToken = args[0]
			}

			correlationID, err := client.EnqueueInstall(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Install queued: %s", correlationID))
			out.Print(
				[]string{"CORRELATION_ID"},
				[][]string{{correlationID}},
				map[string]string{"correlation_id": correlationID},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.AddonsDirectory, "dir", "", "Addons directory on the worker host (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "Addon title")
	cmd.Flags().StringVar(&req.ArchiveURL, "url", "", "Full listing page URL")
	cmd.Flags().StringVar(&req.CorrelationID, "correlation-id", "", "Correlation id (default: generated by the API)")
	cmd.MarkFlagRequired("dir")

	return cmd
}

func newInstallsListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListInstallsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded installs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			installs, err := client.ListInstalls(opts)
			if err != nil {
				return err
			}

			headers := []string{"CORRELATION_ID", "ADDON", "STAGE", "FAILED", "FINISHED"}
			rows := make([][]string, len(installs))
			for i, in := range installs {
				rows[i] = []string{
					in.Outcome.CorrelationID, addonName(in.Request), in.Stage,
					strconv.FormatBool(in.Outcome.Failed), in.FinishedAt,
				}
			}

			out.Print(headers, rows, installs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Stage, "stage", "", "Filter by stage (SUCCEEDED, FAILED, ...)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Max number of installs")

	return cmd
}

func newInstallsShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show CORRELATION_ID",
		Short: "Show an install",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			in, err := client.GetInstall(args[0])
			if err != nil {
				return err
			}

			errMsg := ""
			if in.Outcome.Error != nil {
				errMsg = in.Outcome.Error.Stage + ": " + in.Outcome.Error.Message
			}

			out.Print(
				[]string{"CORRELATION_ID", "ADDON", "DIRECTORY", "STAGE", "DOWNLOAD_URL", "ERROR"},
				[][]string{{
					in.Outcome.CorrelationID, addonName(in.Request), in.Request.AddonsDirectory,
					in.Stage, in.DownloadURL, errMsg,
				}},
				in,
			)
			return nil
		},
	}
}

func addonName(req AddonRequest) string {
	switch {
	case req.Title != "":
		return req.Title
	case req.AddonToken != "":
		return req.AddonToken
	default:
		return req.ArchiveURL
	}
}
