package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bluefermion/feedback-capture/internal/config"
	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/snapshot"
)

// SnapshotCmd takes the environment snapshot a consenting submission would
// attach, without sending anything.
var SnapshotCmd = &cobra.Command{
	Use:   "snapshot <url>",
	Short: "Take an environment snapshot of a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshot,
}

func init() {
	addBrowserFlags(SnapshotCmd)
	SnapshotCmd.Flags().BoolP("json", "j", false, "Print the snapshot as JSON")
	SnapshotCmd.Flags().StringP("out", "o", "", "Write the screenshot to this file")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	log := logger.Named("snapshot")
	logCfg := config.DefaultLogConfig()
	logCfg.AddQueryParamsToLog = settings().GetBool("log.add_query_params")

	s, err := openPage(cmd, args[0], logCfg, log)
	if err != nil {
		return err
	}
	defer s.cancel()

	snap, err := s.collector(log).Collect(cmd.Context(), screenshotConfig(cmd))
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := os.WriteFile(out, snap.Canvas, 0o644); err != nil {
			return err
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	printSnapshot(cmd.OutOrStdout(), snap)
	return nil
}

func printSnapshot(w io.Writer, snap *snapshot.Snapshot) {
	nav := snap.Navigator
	fmt.Fprintf(w, "URL:          %s\n", snap.URL)
	fmt.Fprintf(w, "User agent:   %s\n", nav.UserAgent)
	fmt.Fprintf(w, "Platform:     %s (%s)\n", nav.Platform, nav.Language)
	fmt.Fprintf(w, "Display:      %dx%d @%gx\n", snap.Display.Width, snap.Display.Height, snap.Display.PixelRatio)
	fmt.Fprintf(w, "Private mode: %t\n", nav.PrivateMode)
	fmt.Fprintf(w, "Cookies:      %d (enabled: %t)\n", len(snap.Cookies), nav.CookieEnabled)
	if nav.Storage.Quota != nil {
		usage := uint64(0)
		if nav.Storage.Usage != nil {
			usage = uint64(*nav.Storage.Usage)
		}
		fmt.Fprintf(w, "Storage:      %s of %s\n", humanize.Bytes(usage), humanize.Bytes(uint64(*nav.Storage.Quota)))
	}
	if nav.Network != nil {
		fmt.Fprintf(w, "Network:      %s, %g Mbit/s\n", nav.Network.EffectiveType, nav.Network.Downlink)
	}
	if len(nav.Permissions) > 0 {
		granted := make([]string, 0, len(nav.Permissions))
		for name, state := range nav.Permissions {
			granted = append(granted, fmt.Sprintf("%s=%s", name, state))
		}
		sort.Strings(granted)
		fmt.Fprintf(w, "Permissions:  %s\n", strings.Join(granted, ", "))
	}
	fmt.Fprintf(w, "Workers:      %d registration(s)\n", len(snap.ServiceWorkers))
	fmt.Fprintf(w, "Logs:         %d entr(ies)\n", len(snap.Logs))
	fmt.Fprintf(w, "Screenshot:   %s\n", humanize.Bytes(uint64(len(snap.Canvas))))
}
