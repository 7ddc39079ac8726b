package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazardwatch/internal/adapter/static"
	"github.com/couchcryptid/hazardwatch/internal/domain"
	"github.com/couchcryptid/hazardwatch/internal/fixtures"
)

func newFixturesCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Render the sample events as upstream feed fixtures",
		Long: `Writes the embedded sample events as a USGS GeoJSON response, a volcano
report RSS feed, and a multi-hazard RSS feed. Point USGS_URL, VOLCANO_FEED_URL,
and HAZARD_FEED_URL at a static file server over the output to run live mode
offline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := static.Load()
			if err != nil {
				return err
			}
			written, err := fixtures.WriteAll(out, doc.EventsAt(domain.Now()))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d earthquakes\n", filepath.Join(out, fixtures.USGSFile), written.Earthquakes)
			fmt.Fprintf(w, "%s: %d volcanoes\n", filepath.Join(out, fixtures.VolcanoFile), written.Volcanoes)
			fmt.Fprintf(w, "%s: %d hazards\n", filepath.Join(out, fixtures.HazardFile), written.Hazards)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "testdata/mock", "output directory")
	return cmd
}
