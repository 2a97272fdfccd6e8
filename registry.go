package appcmd

import (
	"sort"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
)

// MaxChoices is the most choices discord accepts in a single choice or autocomplete list
const MaxChoices = 25

type registryEntry struct {
	cmd *RegisteredCommand
	// containers between the root and the command, not including the root
	chain []*Container
}

// Registry is a flat view of a command tree, mapping full command paths ("tag_test send") to leaf commands.
// It is never modified after Flatten returns, so it can be read from multiple goroutines without locking.
type Registry struct {
	entries map[string]*registryEntry
	names   []string

	// lower cased paths built from every name and alias, used to resolve prefix commands.
	// also holds groups so that invoking a bare group can list its commands
	aliases  map[string]string
	groups   map[string]*registryEntry
	maxDepth int

	duplicates []string
}

// Flatten walks the command trees depth first and builds a registry of every leaf command.
// The key of a leaf is the names of its parent groups and its own name joined by spaces.
// If two leaves end up with the same key, the first one encountered is kept and the
// key is recorded in Duplicates.
func Flatten(roots []*RegisteredCommand) *Registry {
	r := &Registry{
		entries: make(map[string]*registryEntry),
		aliases: make(map[string]string),
		groups:  make(map[string]*registryEntry),
	}

	r.walk(roots, "", []string{""}, nil)

	r.names = make([]string, 0, len(r.entries))
	for k := range r.entries {
		r.names = append(r.names, k)
	}
	sort.Strings(r.names)

	return r
}

func (r *Registry) walk(nodes []*RegisteredCommand, path string, aliasPaths []string, chain []*Container) {
	for _, node := range nodes {
		fullName := strings.TrimSpace(path + " " + node.Name())
		nodeAliases := expandAliases(aliasPaths, node)

		if c, ok := node.Container(); ok {
			subChain := make([]*Container, len(chain), len(chain)+1)
			copy(subChain, chain)
			subChain = append(subChain, c)

			if _, ok := r.groups[fullName]; !ok {
				r.groups[fullName] = &registryEntry{cmd: node, chain: chain}
				r.addAliases(fullName, nodeAliases)
			}

			r.walk(c.Commands, fullName, nodeAliases, subChain)
			continue
		}

		if _, ok := r.entries[fullName]; ok {
			r.duplicates = append(r.duplicates, fullName)
			continue
		}

		r.entries[fullName] = &registryEntry{cmd: node, chain: chain}
		if _, isMenu := node.Command.(CmdWithContextMenu); !isMenu {
			r.addAliases(fullName, nodeAliases)
		}
	}
}

func (r *Registry) addAliases(fullName string, aliases []string) {
	for _, a := range aliases {
		if _, ok := r.aliases[a]; ok {
			continue
		}
		r.aliases[a] = fullName

		if depth := len(strings.Fields(a)); depth > r.maxDepth {
			r.maxDepth = depth
		}
	}
}

func expandAliases(parents []string, node *RegisteredCommand) []string {
	if node.Trigger == nil {
		return nil
	}

	out := make([]string, 0, len(parents)*len(node.Trigger.Names))
	for _, p := range parents {
		for _, name := range node.Trigger.Names {
			out = append(out, strings.ToLower(strings.TrimSpace(p+" "+name)))
		}
	}

	return out
}

// Len returns the number of leaf commands
func (r *Registry) Len() int {
	return len(r.entries)
}

// Names returns the full path of every leaf command, sorted by byte order
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Duplicates returns the paths that were registered more than once, in the order they were dropped
func (r *Registry) Duplicates() []string {
	out := make([]string, len(r.duplicates))
	copy(out, r.duplicates)
	return out
}

// Lookup finds a leaf command by its exact full path, returning a *CommandNotFound error if there is none
func (r *Registry) Lookup(name string) (*RegisteredCommand, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, &CommandNotFound{Name: name}
	}

	return entry.cmd, nil
}

// Chain returns the containers between the root and the command
func (r *Registry) Chain(name string) []*Container {
	entry, ok := r.entries[name]
	if !ok {
		return nil
	}

	return entry.chain
}

// Group returns the group registered at the full path, if any
func (r *Registry) Group(name string) (*RegisteredCommand, bool) {
	entry, ok := r.groups[name]
	if !ok {
		return nil, false
	}

	return entry.cmd, true
}

// Choices returns every command path as a choice, sorted
func (r *Registry) Choices() []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	return out
}

// Search returns up to limit choices for the command paths containing query (case insensitive), sorted
func (r *Registry) Search(query string, limit int) []*discordgo.ApplicationCommandOptionChoice {
	query = strings.ToLower(strings.TrimSpace(query))
	if limit < 0 {
		limit = 0
	}

	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, limit)
	for _, name := range r.names {
		if len(out) >= limit {
			break
		}

		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}

		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}

	return out
}

// Resolve finds the command (or group) the input text starts with, using names and aliases case insensitively.
// The longest match wins. It returns the full path, the entry and the text after the command.
func (r *Registry) Resolve(input string) (path string, cmd *RegisteredCommand, chain []*Container, rest string, found bool) {
	fields := strings.Fields(input)

	n := r.maxDepth
	if len(fields) < n {
		n = len(fields)
	}

	for ; n > 0; n-- {
		key := strings.ToLower(strings.Join(fields[:n], " "))
		fullName, ok := r.aliases[key]
		if !ok {
			continue
		}

		entry, ok := r.entries[fullName]
		if !ok {
			entry = r.groups[fullName]
		}

		return fullName, entry.cmd, entry.chain, skipFields(input, n), true
	}

	return "", nil, nil, "", false
}

// skipFields returns s with the first n whitespace separated fields removed
func skipFields(s string, n int) string {
	for i := 0; i < n; i++ {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		idx := strings.IndexFunc(s, unicode.IsSpace)
		if idx == -1 {
			return ""
		}
		s = s[idx:]
	}

	return strings.TrimSpace(s)
}
