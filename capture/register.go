package capture

import (
	"log"

	"github.com/framegrace/texelcast/config"
	"github.com/framegrace/texelcast/directory"
	"github.com/framegrace/texelcast/host"
)

// SourceID is the registry id of the capture source type.
const SourceID = "texelcast_capture"

// Info returns the host registration record for the capture source type.
// Each created instance gets its own directory handle unless deps supplies
// one; a failed open is logged and the instance stays unbound.
func Info(deps Options) host.SourceInfo {
	return host.SourceInfo{
		ID:       SourceID,
		Name:     "Texelcast Capture",
		Defaults: Defaults,
		Create: func(settings config.Section) (host.Source, error) {
			opts := deps
			if opts.Directory == nil {
				reg, err := directory.OpenDefault()
				if err != nil {
					log.Printf("Capture: WARN opening producer directory: %v", err)
				} else {
					opts.Directory = reg
				}
			}
			NormalizeSettings(settings)
			return New(settings, opts), nil
		},
	}
}
