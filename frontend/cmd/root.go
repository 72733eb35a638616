package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cwl "github.com/lijiang2014/cwl.inspect"
	"github.com/lijiang2014/cwl.inspect/inspector"
)

var (
	asJSON            bool
	asYAML            bool
	jobFile           string
	outdir            string
	tmpdir            string
	withoutPreprocess bool
	quiet             bool

	logger *zap.SugaredLogger
)

// rootCmd represents the base command when called without any
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "cwl-inspect [flags] CWL CMD",
	Short: "inspector for Common Workflow Language documents",
	Long: `cwl-inspect parses a CWL v1.0 tool or workflow, resolves its schema,
and answers queries against it: walk a path, list keys, materialize the
command line, or predict the outputs.

CMD is one of:
  .<path>        dump the node at the given path
  keys(.<path>)  list the keys at the given path
  commandline    materialize the command line
  list           list the predicted outputs`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runInspect,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "Print in JSON format")
	rootCmd.Flags().BoolVar(&asYAML, "yaml", false, "Print in YAML format (default)")
	rootCmd.Flags().StringVarP(&jobFile, "input", "i", "", "Job parameter file (YAML, or JSON with a .json suffix)")
	rootCmd.Flags().StringVar(&outdir, "outdir", "", "Output directory (default: current directory)")
	rootCmd.Flags().StringVar(&tmpdir, "tmpdir", "/tmp", "Temporary directory")
	rootCmd.Flags().BoolVar(&withoutPreprocess, "without-preprocess", false, "Skip $import/$include expansion")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Only log errors")
}

func initLogger() {
	cfg := zap.NewDevelopmentConfig()
	if quiet {
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop().Sugar()
		return
	}
	logger = l.Sugar()
}

func runInspect(c *cobra.Command, args []string) error {
	initLogger()
	defer logger.Sync()

	ref, pos := args[0], args[1]

	doc, err := loadDocument(ref)
	if err != nil {
		return err
	}
	logger.Debugw("document loaded", "class", doc.Process.ClassName(), "path", doc.Path)

	switch {
	case pos == "commandline", pos == "list":
		values, err := loadJob()
		if err != nil {
			return err
		}
		rt, err := inspector.NewRuntime(outdir, tmpdir, doc.Dir)
		if err != nil {
			return err
		}
		process, err := inspector.NewProcess(doc, values, rt)
		if err != nil {
			return err
		}
		if pos == "commandline" {
			line, err := process.CommandLine()
			if err != nil {
				return err
			}
			fmt.Println(line)
			return nil
		}
		outputs, err := process.ListOutputs()
		if err != nil {
			return err
		}
		return dump(outputs)

	case strings.HasPrefix(pos, "keys(") && strings.HasSuffix(pos, ")"):
		keys, err := inspector.Keys(doc.Process, pos[len("keys("):len(pos)-1])
		if err != nil {
			return err
		}
		return dump(keys)

	case strings.HasPrefix(pos, "."):
		node, err := inspector.Walk(doc.Process, pos)
		if err != nil {
			return err
		}
		return dump(node)
	}
	return fmt.Errorf("unknown command %q", pos)
}

func loadDocument(ref string) (*cwl.Document, error) {
	if ref == "-" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		return cwl.LoadReader(os.Stdin, wd, !withoutPreprocess)
	}
	return cwl.LoadFile(ref, !withoutPreprocess)
}

func loadJob() (*cwl.Values, error) {
	if jobFile == "" {
		return nil, nil
	}
	f, err := os.Open(jobFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	values := cwl.NewValues()
	if err := values.Decode(f); err != nil {
		return nil, err
	}
	return values, nil
}

func dump(v interface{}) error {
	if asJSON && !asYAML {
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}
	raw, err := cwl.J2Y(v)
	if err != nil {
		return err
	}
	fmt.Print(string(raw))
	return nil
}
