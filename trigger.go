package appcmd

// Trigger holds the registration side of a command: its names and where it can be used
type Trigger struct {
	// The first name is used in slash menus, the rest are aliases usable with prefix commands
	Names       []string
	Middlewares []MiddleWareFunc

	HideFromHelp bool
	DisableInDM  bool
	// Only usable as a prefix command, not registered with discord
	PrefixOnly bool

	// Permission bits a member needs for discord to show the command, nil means everyone
	DefaultMemberPermissions *int64
}

func NewTrigger(name string, aliases ...string) *Trigger {
	names := []string{name}
	if len(aliases) > 0 {
		names = append(names, aliases...)
	}

	return &Trigger{
		Names: names,
	}
}

func (t *Trigger) SetHideFromHelp(hide bool) *Trigger {
	t.HideFromHelp = hide
	return t
}

func (t *Trigger) SetDisableInDM(disable bool) *Trigger {
	t.DisableInDM = disable
	return t
}

func (t *Trigger) SetPrefixOnly(prefixOnly bool) *Trigger {
	t.PrefixOnly = prefixOnly
	return t
}

func (t *Trigger) SetDefaultMemberPermissions(perms int64) *Trigger {
	t.DefaultMemberPermissions = &perms
	return t
}

func (t *Trigger) SetMiddlewares(mw ...MiddleWareFunc) *Trigger {
	t.Middlewares = mw
	return t
}
