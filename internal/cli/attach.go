package cli

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/ALT-F4-LLC/ticketboard/internal/output"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

var attachCmd = &cobra.Command{
	Use:   "attach <id> <file>",
	Short: "Attach a local file's metadata to a ticket",
	Long: `Attach a local file's metadata to a ticket.

Only the name, size, MIME type and a file:// URL are recorded; the file
contents are never uploaded.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		_, t, err := findTicket(cmd, args[0])
		if err != nil {
			return err
		}

		in, err := attachmentFromFile(args[1])
		if err != nil {
			return err
		}

		a, err := getService(cmd).AddAttachment(cmd.Context(), t.ID, in)
		if err != nil {
			return wrapErr(err, "attaching file")
		}

		w.Success(a, fmt.Sprintf("Attached %s (%s) to %s", a.Name, humanize.Bytes(uint64(a.Size)), render.ShortID(t.ID)))
		return nil
	},
}

// attachmentFromFile describes the file at path. The MIME type comes from the
// extension, falling back to content sniffing.
func attachmentFromFile(path string) (model.AttachmentInput, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.AttachmentInput{}, cmdErr(fmt.Errorf("resolving %s: %w", path, err), output.ErrValidation)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return model.AttachmentInput{}, cmdErr(fmt.Errorf("reading %s: %w", path, err), output.ErrNotFound)
	}
	if info.IsDir() {
		return model.AttachmentInput{}, cmdErr(fmt.Errorf("%s is a directory", path), output.ErrValidation)
	}

	kind := mime.TypeByExtension(filepath.Ext(abs))
	if kind == "" {
		if m, err := mimetype.DetectFile(abs); err == nil {
			kind = m.String()
		}
	}
	if i := strings.Index(kind, ";"); i >= 0 {
		kind = strings.TrimSpace(kind[:i])
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return model.AttachmentInput{
		Name: filepath.Base(abs),
		Size: info.Size(),
		Type: kind,
		URL:  u.String(),
	}, nil
}

var detachCmd = &cobra.Command{
	Use:   "detach <id> <attachment-id>",
	Short: "Remove an attachment from a ticket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		_, t, err := findTicket(cmd, args[0])
		if err != nil {
			return err
		}

		a, err := matchAttachment(t.Attachments, args[1])
		if err != nil {
			return err
		}

		if err := getService(cmd).RemoveAttachment(cmd.Context(), t.ID, a.ID); err != nil {
			return wrapErr(err, "removing attachment")
		}

		w.Success(deleteResult{ID: a.ID}, fmt.Sprintf("Removed %s from %s", a.Name, render.ShortID(t.ID)))
		return nil
	},
}

// matchAttachment finds an attachment by ID, ID prefix or exact file name.
func matchAttachment(atts []model.Attachment, arg string) (model.Attachment, error) {
	var matches []model.Attachment
	for _, a := range atts {
		if a.ID == arg {
			return a, nil
		}
		if strings.HasPrefix(a.ID, arg) || a.Name == arg {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 0:
		return model.Attachment{}, cmdErr(fmt.Errorf("attachment %s not found", arg), output.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Attachment{}, cmdErr(fmt.Errorf("attachment %q is ambiguous", arg), output.ErrValidation)
	}
}

func init() {
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(detachCmd)
}
