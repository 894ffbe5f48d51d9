package nodes

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgallion1/docnodes/internal/metrics"
)

// Node is a named operation the registry can run.
type Node struct {
	Name         string
	DisplayName  string
	Category     string
	Inputs       []InputSpec
	ReturnTypes  []string
	ReturnNames  []string
	OutputIsList bool

	Run func(ctx context.Context, in Inputs) (Outputs, error)

	// Validate runs before Run and rejects inputs early. Optional.
	Validate func(ctx context.Context, in Inputs) error

	// Fingerprint maps inputs to an opaque key that changes whenever the
	// node's output could change. Optional; defaults to hashing the inputs.
	Fingerprint func(ctx context.Context, in Inputs) (string, error)
}

// Info is the JSON-safe description of a node.
type Info struct {
	Name         string      `json:"name"`
	DisplayName  string      `json:"display_name"`
	Category     string      `json:"category"`
	Inputs       []InputSpec `json:"inputs"`
	ReturnTypes  []string    `json:"return_types"`
	ReturnNames  []string    `json:"return_names"`
	OutputIsList bool        `json:"output_is_list"`
}

func (n *Node) Info() Info {
	return Info{
		Name:         n.Name,
		DisplayName:  n.DisplayName,
		Category:     n.Category,
		Inputs:       n.Inputs,
		ReturnTypes:  n.ReturnTypes,
		ReturnNames:  n.ReturnNames,
		OutputIsList: n.OutputIsList,
	}
}

// Registry maps node names to nodes. It is filled once at startup and only
// read afterwards.
type Registry struct {
	nodes map[string]*Node
	log   *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		nodes: make(map[string]*Node),
		log:   log,
	}
}

// Register adds n. Names must be unique.
func (r *Registry) Register(n Node) error {
	if n.Name == "" || n.Run == nil {
		return fmt.Errorf("register node %q: name and Run are required", n.Name)
	}
	if _, ok := r.nodes[n.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name)
	}
	r.nodes[n.Name] = &n
	return nil
}

func (r *Registry) Get(name string) (*Node, error) {
	n, ok := r.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	return n, nil
}

// List returns all nodes sorted by name.
func (r *Registry) List() []*Node {
	out := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *Node) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Run resolves defaults, validates and executes the named node.
func (r *Registry) Run(ctx context.Context, name string, in Inputs) (Outputs, error) {
	n, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	log := r.log.With("node", name)

	start := time.Now()
	out, err := r.run(ctx, n, in)
	elapsed := time.Since(start)

	metrics.NodeRunDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		metrics.NodeRunsTotal.WithLabelValues(name, "error").Inc()
		log.Warn("node failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return nil, err
	}
	metrics.NodeRunsTotal.WithLabelValues(name, "ok").Inc()
	log.Debug("node ran", "outputs", len(out), "duration_ms", elapsed.Milliseconds())
	return out, nil
}

func (r *Registry) run(ctx context.Context, n *Node, in Inputs) (Outputs, error) {
	resolved, err := withDefaults(n.Inputs, in)
	if err != nil {
		return nil, err
	}
	if n.Validate != nil {
		if err := n.Validate(ctx, resolved); err != nil {
			return nil, err
		}
	}
	return n.Run(ctx, resolved)
}

// Fingerprint returns the cache key for running name with in.
func (r *Registry) Fingerprint(ctx context.Context, name string, in Inputs) (string, error) {
	n, err := r.Get(name)
	if err != nil {
		return "", err
	}
	resolved, err := withDefaults(n.Inputs, in)
	if err != nil {
		return "", err
	}
	if n.Fingerprint != nil {
		return n.Fingerprint(ctx, resolved)
	}
	return HashValues(name, resolved)
}

// HashValues hashes the JSON encoding of values. Map keys are encoded in
// sorted order, so equal inputs always hash equally.
func HashValues(values ...any) (string, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return ContentHashHex(data), nil
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
