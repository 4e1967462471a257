package metadata

// PluginSetting describes one configuration key accepted by a plugin.
type PluginSetting struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name,omitempty"`
	Required    bool   `json:"required"`
	Secure      bool   `json:"secure"`
}

type PluginSettings []PluginSetting

func (s PluginSettings) Find(key string) (PluginSetting, bool) {
	for _, setting := range s {
		if setting.Key == key {
			return setting, true
		}
	}
	return PluginSetting{}, false
}

func (s PluginSettings) IsSecure(key string) bool {
	setting, ok := s.Find(key)
	return ok && setting.Secure
}

func (s PluginSettings) RequiredKeys() []string {
	var keys []string
	for _, setting := range s {
		if setting.Required {
			keys = append(keys, setting.Key)
		}
	}
	return keys
}

// PluginInfo is implemented by every kind of plugin metadata.
type PluginInfo interface {
	ID() string
}

type ArtifactPluginInfo struct {
	PluginID              string         `json:"plugin_id"`
	StoreSettings         PluginSettings `json:"store_settings"`
	ArtifactSettings      PluginSettings `json:"artifact_settings"`
	FetchArtifactSettings PluginSettings `json:"fetch_artifact_settings"`
}

func (i *ArtifactPluginInfo) ID() string { return i.PluginID }

type Capabilities struct {
	SupportedAuthType string `json:"supported_auth_type"`
	CanSearch         bool   `json:"can_search"`
	CanAuthorize      bool   `json:"can_authorize"`
}

type AuthorizationPluginInfo struct {
	PluginID           string         `json:"plugin_id"`
	AuthConfigSettings PluginSettings `json:"auth_config_settings"`
	RoleSettings       PluginSettings `json:"role_settings"`
	Capabilities       Capabilities   `json:"capabilities"`
}

func (i *AuthorizationPluginInfo) ID() string { return i.PluginID }
