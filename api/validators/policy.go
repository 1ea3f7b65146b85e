package validators

import "github.com/naebak/naebak-auth-service/pkg/config"

var defaultPasswordPolicy = config.PasswordConfig{MinLength: 8, RequireMixed: true}
