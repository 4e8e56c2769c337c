package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"assistant-voice-trigger/audio_capture"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `List the input-capable audio devices, marking the system default.

Any substring of a listed name works as the --device value for
'voice-trigger listen'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := audio_capture.InputDevices()
		if err != nil {
			return err
		}

		if len(devices) == 0 {
			fmt.Println("No input devices found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DEFAULT\tNAME\tCHANNELS\tRATE")

		for _, device := range devices {
			mark := ""
			if device.Default {
				mark = "*"
			}

			fmt.Fprintf(w, "%s\t%s\t%d\t%.0f\n",
				mark, device.Name, device.MaxInputChannels, device.DefaultSampleRate)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
