package service

import (
	"github.com/entrhq/xpidriver/pkg/domain"
	"github.com/entrhq/xpidriver/pkg/profile"
)

// ConfigureProfile points p at port and attaches the automation extension
// unless p already carries one. The resolver is consulted only in that case,
// so an extension the caller attached explicitly always wins.
func ConfigureProfile(p domain.Profile, port int, r domain.ExtensionResolver) error {
	p.SetPreference(profile.PortPreference, port)

	if p.HasAutomationExtension() {
		return nil
	}
	return p.AttachExtension(profile.AutomationExtensionName, r.Resolve())
}
