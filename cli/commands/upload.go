package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload files for use as conversation context",
	Long: `Upload one or more local files and print their server-assigned IDs.

Pass the printed IDs to a later chat via --file, or use them directly
against the library's WithFileRefs option.

Examples:
  kimi upload report.pdf
  kimi upload a.png b.png --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	uploaded, err := engine.UploadFiles(cmd.Context(), args...)
	if err != nil {
		return handleError(err)
	}

	if jsonOutput {
		output := make([]map[string]any, len(uploaded))
		for i, f := range uploaded {
			output[i] = map[string]any{
				"id":           f.ID,
				"name":         f.Name,
				"size":         f.Size,
				"content_type": f.ContentType,
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	for _, f := range uploaded {
		fmt.Printf("%s\t%s\t%d bytes\n", f.ID, f.Name, f.Size)
	}
	return nil
}
