package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/blockstage/internal/colorspace"
)

var hsvCmd = &cobra.Command{
	Use:   "hsv <#rrggbb>",
	Short: "Convert a hex color to hue, saturation and value",
	Args:  cobra.ExactArgs(1),
	RunE:  runHSV,
}

var rgbCmd = &cobra.Command{
	Use:   "rgb <h> <s> <v>",
	Short: "Convert hue (degrees), saturation and value (0-1) to a hex color",
	Args:  cobra.ExactArgs(3),
	RunE:  runRGB,
}

func init() {
	rootCmd.AddCommand(hsvCmd)
	rootCmd.AddCommand(rgbCmd)

	hsvCmd.Flags().Bool("json", false, "Print the result as JSON")
	rgbCmd.Flags().Bool("json", false, "Print the result as JSON")
	rgbCmd.Flags().Bool("split", false, "Print the three hex channels separately")

	mustBind := func(cmd *cobra.Command, key, name string) {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
	mustBind(hsvCmd, "hsv.json", "json")
	mustBind(rgbCmd, "rgb.json", "json")
	mustBind(rgbCmd, "rgb.split", "split")
}

func runHSV(cmd *cobra.Command, args []string) error {
	hsv, err := colorspace.RGBToHSV(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("hsv.json") {
		return json.NewEncoder(out).Encode(map[string]float64{"h": hsv.H, "s": hsv.S, "v": hsv.V})
	}
	_, err = fmt.Fprintf(out, "%s %s %s\n", formatFloat(hsv.H), formatFloat(hsv.S), formatFloat(hsv.V))
	return err
}

func runRGB(cmd *cobra.Command, args []string) error {
	hsv, err := parseHSVArgs(args)
	if err != nil {
		return err
	}

	parts, err := colorspace.HSVToRGB(hsv)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case viper.GetBool("rgb.json"):
		return json.NewEncoder(out).Encode(map[string]string{
			"r": parts[0], "g": parts[1], "b": parts[2], "hex": colorspace.JoinHex(parts),
		})
	case viper.GetBool("rgb.split"):
		_, err = fmt.Fprintf(out, "%s %s %s\n", parts[0], parts[1], parts[2])
	default:
		_, err = fmt.Fprintln(out, colorspace.JoinHex(parts))
	}
	return err
}

// parseHSVArgs parses "<h> <s> <v>" command arguments.
func parseHSVArgs(args []string) (colorspace.HSV, error) {
	if len(args) != 3 {
		return colorspace.HSV{}, fmt.Errorf("expected 3 components, got %d", len(args))
	}

	var v [3]float64
	for i, arg := range args {
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return colorspace.HSV{}, fmt.Errorf("invalid component %q: %w", arg, err)
		}
		v[i] = f
	}
	return colorspace.HSV{H: v[0], S: v[1], V: v[2]}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
