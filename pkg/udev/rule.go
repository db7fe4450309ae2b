package udev

import "github.com/pilebones/go-udev/netlink"

// genRuleForBlock matches every block-subsystem uevent; finer disk
// filtering happens in filterDisk.
func genRuleForBlock() netlink.Matcher {
	return &netlink.RuleDefinitions{
		Rules: []netlink.RuleDefinition{
			{
				Env: map[string]string{
					"SUBSYSTEM": "block",
				},
			},
		},
	}
}
