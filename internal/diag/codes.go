package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Catalog lookups
	MissingConfigKey Code = 1001
	MissingFlagKey   Code = 1002
)

var codeDescription = map[Code]string{
	UnknownCode:      "Unknown error",
	MissingConfigKey: "Config key is not defined",
	MissingFlagKey:   "Feature flag is not defined",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("PFX%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
