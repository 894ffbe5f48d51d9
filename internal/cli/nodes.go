package cli

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docnodes/internal/config"
	"github.com/dgallion1/docnodes/internal/nodes"
	"github.com/dgallion1/docnodes/internal/raster"
	"github.com/spf13/cobra"
)

func newNodesCmd() *cobra.Command {
	var inputDir string
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the available nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := localRegistry(cmd, inputDir)
			if err != nil {
				return err
			}
			list := reg.List()
			infos := make([]nodes.Info, len(list))
			for i, n := range list {
				infos[i] = n.Info()
			}
			return emit(cmd, infos, func(w io.Writer) { printNodes(w, infos) })
		},
	}
	cmd.PersistentFlags().StringVar(&inputDir, "input-dir", "", "Input directory (overrides INPUT_DIR)")
	cmd.AddCommand(newNodesRunCmd(&inputDir))
	return cmd
}

type runResult struct {
	Node        string `json:"node" yaml:"node"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Outputs     []any  `json:"outputs" yaml:"outputs"`
}

func newNodesRunCmd(inputDir *string) *cobra.Command {
	var inputsJSON, outDir string
	cmd := &cobra.Command{
		Use:   "run NAME",
		Short: "Run one node against the input directory",
		Long: `Run a node with inputs given as a JSON object, e.g.
  docnodes nodes run TextChunker --inputs '{"text":"a b c","chunk_size":2}'

Image inputs are PNG file paths. Image outputs are written as PNG files to
--out-dir and reported by path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			reg, err := localRegistry(cmd, *inputDir)
			if err != nil {
				return err
			}
			n, err := reg.Get(name)
			if err != nil {
				return err
			}

			in := nodes.Inputs{}
			dec := json.NewDecoder(strings.NewReader(inputsJSON))
			dec.UseNumber()
			if err := dec.Decode(&in); err != nil {
				return fmt.Errorf("--inputs: %w", err)
			}

			fingerprint, err := reg.Fingerprint(cmd.Context(), name, in)
			if err != nil {
				return err
			}
			in, err = loadImageInputs(n, in)
			if err != nil {
				return err
			}
			out, err := reg.Run(cmd.Context(), name, in)
			if err != nil {
				return err
			}
			written, err := writeImageOutputs(name, out, outDir)
			if err != nil {
				return err
			}

			res := runResult{Node: name, Fingerprint: fingerprint, Outputs: written}
			return emit(cmd, res, func(w io.Writer) { printRun(w, n, res) })
		},
	}
	cmd.Flags().StringVarP(&inputsJSON, "inputs", "i", "{}", "Node inputs as a JSON object")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "Directory for image outputs")
	return cmd
}

// localRegistry builds the registry over the configured input directory.
// Logs go to stderr so they never mix with command output.
func localRegistry(cmd *cobra.Command, inputDir string) (*nodes.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if inputDir != "" {
		cfg.InputDir = inputDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.LogLevel = "warn"
	reg, _, err := newRegistry(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg))
	return reg, err
}

func loadImageInputs(n *nodes.Node, in nodes.Inputs) (nodes.Inputs, error) {
	out := maps.Clone(in)
	for _, spec := range n.Inputs {
		if spec.Type != nodes.TypeImage {
			continue
		}
		paths, err := out.Strings(spec.Name)
		if err != nil {
			continue
		}
		images := make([]image.Image, len(paths))
		for i, p := range paths {
			img, err := readPNG(p)
			if err != nil {
				return nil, fmt.Errorf("%w: %s[%d]: %v", nodes.ErrInvalidInput, spec.Name, i, err)
			}
			images[i] = img
		}
		out[spec.Name] = images
	}
	return out, nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// writeImageOutputs saves image outputs under dir and replaces them by
// their paths. Other outputs are returned unchanged.
func writeImageOutputs(node string, out nodes.Outputs, dir string) ([]any, error) {
	res := make([]any, len(out))
	for slot, v := range out {
		switch v := v.(type) {
		case []image.Image:
			paths := make([]string, len(v))
			for i, img := range v {
				p, err := writePNG(dir, fmt.Sprintf("%s_%d_%03d.png", node, slot, i), img)
				if err != nil {
					return nil, err
				}
				paths[i] = p
			}
			res[slot] = paths
		case image.Image:
			p, err := writePNG(dir, fmt.Sprintf("%s_%d.png", node, slot), v)
			if err != nil {
				return nil, err
			}
			res[slot] = p
		default:
			res[slot] = v
		}
	}
	return res, nil
}

func writePNG(dir, name string, img image.Image) (string, error) {
	data, err := raster.EncodePNG(img)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

func printNodes(w io.Writer, infos []nodes.Info) {
	for _, info := range infos {
		fmt.Fprintf(w, "%s %s\n", titleStyle.Render(info.Name), dimStyle.Render("("+info.Category+")"))
		for _, in := range info.Inputs {
			line := fmt.Sprintf("  %s %s", in.Name, dimStyle.Render(in.Type))
			if in.Default != nil {
				line += dimStyle.Render(fmt.Sprintf(" = %v", in.Default))
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintf(w, "  -> %s\n", strings.Join(info.ReturnNames, ", "))
	}
}

func printRun(w io.Writer, n *nodes.Node, res runResult) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(res.Node), dimStyle.Render(res.Fingerprint[:min(12, len(res.Fingerprint))]))
	for i, v := range res.Outputs {
		label := fmt.Sprintf("output %d", i)
		if i < len(n.ReturnNames) {
			label = n.ReturnNames[i]
		}
		fmt.Fprintln(w, successStyle.Render(label+":"))
		switch v := v.(type) {
		case []string:
			for j, s := range v {
				fmt.Fprintf(w, "  %s %s\n", dimStyle.Render(fmt.Sprintf("[%d]", j)), s)
			}
		default:
			fmt.Fprintf(w, "  %v\n", v)
		}
	}
}
