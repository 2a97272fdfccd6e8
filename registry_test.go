package appcmd

import (
	"sort"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(name string, aliases ...string) *RegisteredCommand {
	return &RegisteredCommand{Command: &TestCommand{}, Trigger: NewTrigger(name, aliases...)}
}

func group(name string, children ...*RegisteredCommand) *RegisteredCommand {
	return &RegisteredCommand{Command: &Container{Commands: children}, Trigger: NewTrigger(name)}
}

type menuCommand struct{ TestCommand }

func (m *menuCommand) ContextMenuType() discordgo.ApplicationCommandType {
	return discordgo.UserApplicationCommand
}

func TestFlattenLeafRoots(t *testing.T) {
	reg := Flatten([]*RegisteredCommand{leaf("ping"), leaf("roll"), leaf("help")})

	if diff := cmp.Diff([]string{"help", "ping", "roll"}, reg.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, reg.Len())
}

func TestFlattenNestedGroups(t *testing.T) {
	c := leaf("c")
	reg := Flatten([]*RegisteredCommand{group("a", group("b", c))})

	assert.Equal(t, []string{"a b c"}, reg.Names())

	got, err := reg.Lookup("a b c")
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = reg.Lookup("a b")
	assert.True(t, IsNotFound(err), "groups are not leaves")
}

func TestFlattenDuplicates(t *testing.T) {
	first := leaf("ping")
	second := leaf("ping")

	reg := Flatten([]*RegisteredCommand{first, second})
	assert.Equal(t, 1, reg.Len())

	got, err := reg.Lookup("ping")
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Equal(t, []string{"ping"}, reg.Duplicates())

	// pre-order, the nested leaf comes before the later root leaf
	nested := leaf("send")
	later := leaf("send")
	reg = Flatten([]*RegisteredCommand{group("tag", nested), group("tag", later)})

	got, err = reg.Lookup("tag send")
	require.NoError(t, err)
	assert.Same(t, nested, got)
	assert.Equal(t, []string{"tag send"}, reg.Duplicates())
}

func TestFlattenTagScenario(t *testing.T) {
	send, create, del := leaf("send"), leaf("create"), leaf("delete")
	reg := Flatten([]*RegisteredCommand{group("tag_test", send, create, del)})

	expected := map[string]*RegisteredCommand{
		"tag_test send":   send,
		"tag_test create": create,
		"tag_test delete": del,
	}

	for name, cmd := range expected {
		got, err := reg.Lookup(name)
		require.NoError(t, err, name)
		assert.Same(t, cmd, got, name)
	}

	assert.Equal(t, []string{"tag_test create", "tag_test delete", "tag_test send"}, reg.Names())
	assert.Empty(t, reg.Duplicates())
}

func TestFlattenEmpty(t *testing.T) {
	for _, roots := range [][]*RegisteredCommand{nil, {group("empty")}} {
		reg := Flatten(roots)
		assert.Equal(t, 0, reg.Len())
		assert.Empty(t, reg.Names())

		_, err := reg.Lookup("anything")
		assert.True(t, IsNotFound(err))
		assert.EqualError(t, err, `Command "anything" not found`)
	}
}

func TestFlattenTrimsPath(t *testing.T) {
	reg := Flatten([]*RegisteredCommand{leaf(" spaced "), group("", leaf("orphan"))})

	assert.Equal(t, []string{"orphan", "spaced"}, reg.Names())
}

func TestNamesSortedByteOrder(t *testing.T) {
	reg := Flatten([]*RegisteredCommand{leaf("b"), leaf("B"), leaf("a"), leaf("_x"), leaf("Z")})

	names := reg.Names()
	assert.Equal(t, []string{"B", "Z", "_x", "a", "b"}, names)

	again := reg.Names()
	sort.Strings(again)
	if diff := cmp.Diff(names, again); diff != "" {
		t.Errorf("sorting twice changed the order (-first +second):\n%s", diff)
	}

	// callers can't modify the registry through the returned slice
	names[0] = "modified"
	assert.Equal(t, "B", reg.Names()[0])
}

func TestLookupCaseSensitive(t *testing.T) {
	reg := Flatten([]*RegisteredCommand{leaf("ping")})

	_, err := reg.Lookup("Ping")
	assert.True(t, IsNotFound(err))
}

func TestRegistryResolve(t *testing.T) {
	reg := Flatten([]*RegisteredCommand{
		leaf("ping", "p"),
		group("tag", leaf("send", "s"), leaf("delete", "del")),
		leaf("tag list"),
		{Command: &menuCommand{}, Trigger: NewTrigger("Get info")},
	})

	cases := []struct {
		input string
		path  string
		rest  string
		found bool
	}{
		{"ping", "ping", "", true},
		{"P some args", "ping", "some args", true},
		{"tag s hello world", "tag send", "hello world", true},
		{"TAG DEL x", "tag delete", "x", true},
		{"tag", "tag", "", true},
		{"tag unknown", "tag", "unknown", true},
		{"  ping   spaced  ", "ping", "spaced", true},
		{"get info", "", "", false},
		{"unknown", "", "", false},
		{"", "", "", false},
	}

	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			path, _, _, rest, found := reg.Resolve(c.input)
			assert.Equal(t, c.found, found)
			assert.Equal(t, c.path, path)
			assert.Equal(t, c.rest, rest)
		})
	}

	_, cmd, chain, _, _ := reg.Resolve("tag send")
	require.NotNil(t, cmd)
	require.Len(t, chain, 1)
	g, ok := reg.Group("tag")
	require.True(t, ok)
	c, _ := g.Container()
	assert.Same(t, c, chain[0])
}

func TestRegistrySearch(t *testing.T) {
	reg := Flatten([]*RegisteredCommand{
		leaf("ping"),
		group("tag_test", leaf("send"), leaf("create"), leaf("delete")),
	})

	names := func(choices []*discordgo.ApplicationCommandOptionChoice) []string {
		out := make([]string, 0, len(choices))
		for _, c := range choices {
			out = append(out, c.Name)
			assert.Equal(t, c.Name, c.Value)
		}
		return out
	}

	assert.Equal(t, []string{"ping", "tag_test create", "tag_test delete", "tag_test send"}, names(reg.Search("", MaxChoices)))
	assert.Equal(t, []string{"tag_test create", "tag_test delete"}, names(reg.Search("TAG", 2)))
	assert.Equal(t, []string{"tag_test send"}, names(reg.Search(" SE ", MaxChoices)))
	assert.Empty(t, reg.Search("nothing", MaxChoices))
	assert.Empty(t, reg.Search("", 0))
	assert.Empty(t, reg.Search("", -1))
	assert.Len(t, reg.Choices(), 4)
}

func TestRegistryConcurrentReads(t *testing.T) {
	sys := NewStandardSystem("!")
	sys.Root.AddCommand(&TestCommand{}, NewTrigger("ping"))
	sys.Rebuild()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg := sys.Registry()
				_, err := reg.Lookup("ping")
				assert.NoError(t, err)
			}
		}()
	}

	for i := 0; i < 10; i++ {
		sys.Rebuild()
	}

	wg.Wait()
}
