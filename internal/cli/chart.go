// Copyright (C) 2026 Prairie Dog Brewing
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prairiedogbeer/fermenator/internal/app"
)

var (
	chartWindow string
	chartOut    string
)

var chartCmd = &cobra.Command{
	Use:   "chart <vessel>",
	Short: "Render a vessel's history chart as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ChartOptions{
			Vessel: args[0],
			Out:    chartOut,
		}
		if chartWindow != "" {
			window, err := time.ParseDuration(chartWindow)
			if err != nil {
				return fmt.Errorf("invalid --window value: %w", err)
			}
			opts.Window = window
		}
		if opts.Out == "" {
			opts.Out = args[0] + ".png"
		}
		return getApp().RenderChart(cmd.Context(), opts)
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartWindow, "window", "", "History window to render (defaults to config)")
	chartCmd.Flags().StringVar(&chartOut, "out", "", "Output path (defaults to <vessel>.png)")
}
