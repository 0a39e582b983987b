package audit

import "fmt"

// ResourceEvent records a CRUD operation against a mounted resource.
type ResourceEvent struct {
	Subject      string
	ClientIP     string
	Resource     string
	Operation    string
	ItemID       string
	Success      bool
	ErrorMessage string
}

func (e ResourceEvent) MessageID() string {
	return e.Operation
}

func (e ResourceEvent) Message() string {
	subject := e.Subject
	if subject == "" {
		subject = "anonymous"
	}
	target := e.Resource
	if e.ItemID != "" {
		target = fmt.Sprintf("%s/%s", e.Resource, e.ItemID)
	}
	if e.Success {
		return fmt.Sprintf("%s performed %s on %s", subject, e.Operation, target)
	}
	msg := fmt.Sprintf("%s failed to %s %s", subject, e.Operation, target)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ResourceEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e ResourceEvent) Facility() int {
	return FacilityUser
}

func (e ResourceEvent) StructuredData() map[string]map[string]string {
	subject := e.Subject
	if subject == "" {
		subject = "anonymous"
	}
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": subject,
		},
		SDIDSubject: {
			"resource": e.Resource,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
		},
	}
	if e.ItemID != "" {
		sd[SDIDSubject]["id"] = e.ItemID
	}
	if e.Success {
		sd[SDIDAction]["result"] = "success"
	} else {
		sd[SDIDAction]["result"] = "failure"
	}
	return sd
}

// AuthEvent records a guard token check.
type AuthEvent struct {
	Subject      string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e AuthEvent) MessageID() string {
	return "authn"
}

func (e AuthEvent) Message() string {
	subject := e.Subject
	if subject == "" {
		subject = "anonymous"
	}
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated", subject)
	}
	msg := fmt.Sprintf("%s failed to authenticate", subject)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthEvent) StructuredData() map[string]map[string]string {
	subject := e.Subject
	if subject == "" {
		subject = "anonymous"
	}
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": subject,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
	if e.Success {
		sd[SDIDAuth]["result"] = "success"
	} else {
		sd[SDIDAuth]["result"] = "failure"
	}
	return sd
}
