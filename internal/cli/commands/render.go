package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/jsonapi/internal/blog"
	"github.com/conduit-lang/jsonapi/internal/cli/ui"
	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

// NewRenderCommand creates the render command
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Render a document without starting the server",
		Long: `Run a GET request against the blog handlers in-process and print the
resulting JSON:API document. The path takes the same query parameters as
the server: include, fields[type], filter[name], sort and page.`,
		Example: `  jsonapi render /articles
  jsonapi render '/articles/1?include=comments.author'
  jsonapi render '/articles?fields[articles]=title&sort=-created_at&page[limit]=5'`,
		Args: cobra.ExactArgs(1),
		RunE: runRender,
	}

	cmd.Flags().Bool("status", false, "Print the HTTP status line before the document")
	cmd.Flags().Bool("summary", false, "Print a table of the primary and included resources instead of the document")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	target := args[0]
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}

	ctx := cmd.Context()
	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	handler := blog.NewHandler(store, blog.Config{
		BaseURL:      cfg.BaseURL(),
		DefaultLimit: cfg.API.DefaultLimit,
		MaxLimit:     cfg.API.MaxLimit,
		Logger:       zap.NewNop(),
	})

	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	req.Header.Set("Accept", jsonapi.ContentType)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	out := cmd.OutOrStdout()
	if showStatus, _ := cmd.Flags().GetBool("status"); showStatus {
		statusColor := color.New(color.FgGreen, color.Bold)
		if rec.Code >= http.StatusBadRequest {
			statusColor = color.New(color.FgRed, color.Bold)
		}
		statusColor.Fprintf(out, "%d %s\n", rec.Code, http.StatusText(rec.Code))
	}

	if summary, _ := cmd.Flags().GetBool("summary"); summary && rec.Code < http.StatusBadRequest {
		if err := printSummary(out, rec.Body.Bytes()); err != nil {
			return err
		}
	} else if rec.Body.Len() > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, rec.Body.Bytes(), "", "  "); err != nil {
			return fmt.Errorf("handler returned invalid JSON: %w", err)
		}
		fmt.Fprintln(out, pretty.String())
	}

	if rec.Code >= http.StatusBadRequest {
		return fmt.Errorf("%s returned %d %s", target, rec.Code, http.StatusText(rec.Code))
	}
	return nil
}

type summaryResource struct {
	Type          string                     `json:"type"`
	ID            string                     `json:"id"`
	Attributes    map[string]json.RawMessage `json:"attributes"`
	Relationships map[string]json.RawMessage `json:"relationships"`
}

// printSummary lists the resources of a document, one row per resource
func printSummary(w io.Writer, body []byte) error {
	var doc struct {
		Data     json.RawMessage   `json:"data"`
		Included []summaryResource `json:"included"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("handler returned invalid JSON: %w", err)
	}

	var primary []summaryResource
	if trimmed := bytes.TrimSpace(doc.Data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &primary); err != nil {
			return fmt.Errorf("invalid primary data: %w", err)
		}
	} else if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		var one summaryResource
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return fmt.Errorf("invalid primary data: %w", err)
		}
		primary = append(primary, one)
	}

	table := ui.NewTable(w, color.NoColor, "SECTION", "TYPE", "ID", "ATTRIBUTES", "RELATIONSHIPS")
	add := func(section string, r summaryResource) {
		table.AddRow(section, r.Type, r.ID, strconv.Itoa(len(r.Attributes)), strconv.Itoa(len(r.Relationships)))
	}
	for _, r := range primary {
		add("data", r)
	}
	for _, r := range doc.Included {
		add("included", r)
	}
	table.Render()
	return nil
}
