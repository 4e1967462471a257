package audit

import "fmt"

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// ConfigUpdateEvent is logged for every attempt to save the configuration
type ConfigUpdateEvent struct {
	User         string
	ClientIP     string
	PreviousMd5  string
	Md5          string
	Success      bool
	ErrorMessage string
}

func (e ConfigUpdateEvent) MessageID() string {
	return "config-update"
}

func (e ConfigUpdateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s updated the configuration from %s to %s", e.User, e.PreviousMd5, e.Md5)
	}
	msg := fmt.Sprintf("%s tried to update the configuration %s", e.User, e.PreviousMd5)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ConfigUpdateEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e ConfigUpdateEvent) Facility() int {
	return FacilityLocal0
}

func (e ConfigUpdateEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth:    {"user": e.User},
		SDIDClient:  {"ip": e.ClientIP},
		SDIDSubject: {"previous_md5": e.PreviousMd5},
		SDIDAction:  {"operation": "update", "result": result(e.Success)},
	}
	if e.Md5 != "" {
		sd[SDIDSubject]["md5"] = e.Md5
	}
	return sd
}

// ConfigFetchEvent is logged when an administrator reads the configuration
// or one of its revisions
type ConfigFetchEvent struct {
	User     string
	ClientIP string
	Md5      string
	Revision bool
}

func (e ConfigFetchEvent) MessageID() string {
	return "config-fetch"
}

func (e ConfigFetchEvent) Message() string {
	if e.Revision {
		return fmt.Sprintf("%s fetched configuration revision %s", e.User, e.Md5)
	}
	return fmt.Sprintf("%s fetched the configuration %s", e.User, e.Md5)
}

func (e ConfigFetchEvent) Severity() Severity {
	return SeverityInfo
}

func (e ConfigFetchEvent) Facility() int {
	return FacilityLocal0
}

func (e ConfigFetchEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth:    {"user": e.User},
		SDIDClient:  {"ip": e.ClientIP},
		SDIDSubject: {"md5": e.Md5},
		SDIDAction:  {"operation": "fetch", "result": "success"},
	}
}

// ConfigReloadEvent is logged when a changed configuration file is accepted
type ConfigReloadEvent struct {
	Path      string
	Md5       string
	Pipelines int
}

func (e ConfigReloadEvent) MessageID() string {
	return "config-reload"
}

func (e ConfigReloadEvent) Message() string {
	return fmt.Sprintf("configuration %s loaded from %s with %d pipelines", e.Md5, e.Path, e.Pipelines)
}

func (e ConfigReloadEvent) Severity() Severity {
	return SeverityNotice
}

func (e ConfigReloadEvent) Facility() int {
	return FacilityLocal0
}

func (e ConfigReloadEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {"path": e.Path, "md5": e.Md5},
		SDIDAction:  {"operation": "reload", "result": "success"},
	}
}

// AccessDeniedEvent is logged when a user is refused an operation
type AccessDeniedEvent struct {
	User      string
	ClientIP  string
	Operation string
	Resource  string
}

func (e AccessDeniedEvent) MessageID() string {
	return "access-denied"
}

func (e AccessDeniedEvent) Message() string {
	return fmt.Sprintf("%s is not allowed to %s %s", e.User, e.Operation, e.Resource)
}

func (e AccessDeniedEvent) Severity() Severity {
	return SeverityWarning
}

func (e AccessDeniedEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AccessDeniedEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth:    {"user": e.User},
		SDIDClient:  {"ip": e.ClientIP},
		SDIDSubject: {"resource": e.Resource},
		SDIDAction:  {"operation": e.Operation, "result": "failure"},
	}
}
