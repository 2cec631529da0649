package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/blockstage/internal/codegen"
)

var codegenCmd = &cobra.Command{
	Use:   "codegen <workspace.json>",
	Short: "Generate interpreter JavaScript from a block workspace",
	Long: `Generate JavaScript from a JSON block workspace as exported by the editor.
Use "-" to read the workspace from stdin.

With --export the output is the downloadable form: conditionals are reduced
to their branch bodies and highlight calls are omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runCodegen,
}

func init() {
	rootCmd.AddCommand(codegenCmd)

	codegenCmd.Flags().Bool("export", false, "Generate code for download")
	codegenCmd.Flags().Bool("highlight", false, "Prefix statements with highlightBlock calls")
	codegenCmd.Flags().String("sprite", "", "Target sprite for motion and pen blocks (overrides the workspace)")
	codegenCmd.Flags().StringP("output", "o", "", "Write code to this file instead of stdout")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"codegen.export", "export"},
		{"codegen.highlight", "highlight"},
		{"codegen.sprite", "sprite"},
		{"codegen.output", "output"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, codegenCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runCodegen(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open workspace: %w", err)
		}
		defer f.Close()
		in = f
	}

	ws, err := codegen.DecodeWorkspace(in)
	if err != nil {
		return err
	}

	gen := codegen.New(codegen.Options{
		Export:    viper.GetBool("codegen.export"),
		Highlight: viper.GetBool("codegen.highlight"),
		Sprite:    viper.GetString("codegen.sprite"),
	})
	code, err := gen.WorkspaceToCode(ws)
	if err != nil {
		return err
	}

	output := viper.GetString("codegen.output")
	if output == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), code)
		return err
	}
	if err := os.WriteFile(output, []byte(code), 0o644); err != nil {
		return fmt.Errorf("failed to write code: %w", err)
	}
	logger.Info("Code generated", "output", output, "blocks", len(ws.Blocks), "bytes", len(code))
	return nil
}
