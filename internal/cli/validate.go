package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gatewell-labs/formgate/internal/schema"
)

var validateEndpoint string

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a payload against a form schema without sending it",
	Long: `Check a JSON payload against an endpoint's schema and print every
field error. Reads from stdin when no file is given.

Examples:
  formctl validate --endpoint contact payload.json
  cat payload.json | formctl validate --endpoint quote`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runValidate,
}

var errInvalidPayload = errors.New("payload failed validation")

func init() {
	validateCmd.Flags().StringVar(&validateEndpoint, "endpoint", "contact", "endpoint schema to validate against")
}

func runValidate(cmd *cobra.Command, args []string) error {
	form, ok := schema.All()[validateEndpoint]
	if !ok {
		return fmt.Errorf("unknown endpoint: %s", validateEndpoint)
	}

	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("payload is not a JSON object: %w", err)
	}

	result := form.Validate(payload)
	if result.OK() {
		fmt.Printf("Payload is valid for %s\n", validateEndpoint)
		return nil
	}

	fields := make([]string, 0, len(result.Errors))
	for f := range result.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	fmt.Printf("Payload failed validation for %s:\n", validateEndpoint)
	for _, f := range fields {
		fmt.Printf("  %s: %s\n", f, result.Errors[f])
	}
	return errInvalidPayload
}
