package admission

import "hotelbooking/internal/domain"

// ErrAdmissionTimeout means the inventory lock could not be acquired in time.
// Nothing was changed and the caller may retry.
var ErrAdmissionTimeout = domain.ErrAdmissionTimeout
