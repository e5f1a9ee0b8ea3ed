package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/config"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

type configInfo struct {
	DataDir        string   `json:"data_dir"`
	CacheDir       string   `json:"cache_dir"`
	ConfigFile     string   `json:"config_file"`
	DatabaseURL    string   `json:"database_url"`
	DatabaseSource string   `json:"database_source"`
	APIBase        string   `json:"api_base"`
	Offline        bool     `json:"offline"`
	ListenAddr     string   `json:"listen_addr"`
	Env            string   `json:"env"`
	AllowedOrigins []string `json:"allowed_origins"`
	RateLimit      int      `json:"rate_limit"`
	Author         string   `json:"author"`
}

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Display the resolved configuration",
	Annotations: map[string]string{"skipBackend": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		info := configInfo{
			DataDir:        cfg.DataDir,
			CacheDir:       cfg.CacheDir,
			ConfigFile:     cfg.ConfigFile,
			DatabaseURL:    cfg.RedactedDatabaseURL(),
			DatabaseSource: cfg.DatabaseURLVar,
			APIBase:        cfg.APIBase,
			Offline:        cfg.Offline,
			ListenAddr:     cfg.ListenAddr,
			Env:            cfg.Env,
			AllowedOrigins: cfg.AllowedOrigins,
			RateLimit:      cfg.RateLimit,
			Author:         config.DefaultAuthor(),
		}

		w.Success(info, formatConfigHuman(info))
		return nil
	},
}

func orNotSet(val string) string {
	if val == "" {
		return "(not set)"
	}
	return val
}

func configRows(info configInfo) [][2]string {
	db := orNotSet(info.DatabaseURL)
	if info.DatabaseSource != "" {
		db = fmt.Sprintf("%s (from %s)", db, info.DatabaseSource)
	}
	api := info.APIBase
	if info.Offline {
		api += " (offline)"
	}
	return [][2]string{
		{"Data directory:", info.DataDir},
		{"Local cache:", info.CacheDir},
		{"Config file:", orNotSet(info.ConfigFile)},
		{"Database:", db},
		{"Remote API:", api},
		{"Listen address:", info.ListenAddr},
		{"Environment:", info.Env},
		{"CORS origins:", strings.Join(info.AllowedOrigins, ", ")},
		{"Rate limit:", fmt.Sprintf("%d req/min per IP", info.RateLimit)},
		{"Author:", info.Author},
	}
}

func formatConfigHuman(info configInfo) string {
	rows := configRows(info)

	if !render.ColorsEnabled() {
		lines := make([]string, len(rows))
		for i, r := range rows {
			lines[i] = fmt.Sprintf("%-16s %s", r[0], r[1])
		}
		return strings.Join(lines, "\n")
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(16)
	valStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))

	lines := []string{headerStyle.Render("Ticketboard Configuration"), ""}
	for _, r := range rows {
		lines = append(lines, "  "+keyStyle.Render(r[0])+" "+valStyle.Render(r[1]))
	}
	return strings.Join(lines, "\n")
}

func init() {
	rootCmd.AddCommand(configCmd)
}
