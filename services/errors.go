package services

import "errors"

var (
	ErrOrderNotFound       = errors.New("order does not exist")
	ErrOrderNotPending     = errors.New("order is no longer open for changes")
	ErrOrderNotRefundable  = errors.New("only purchased orders can be refunded")
	ErrCouponNotFound      = errors.New("discount does not exist against code")
	ErrMultipleCoupons     = errors.New("only one coupon redemption is allowed against an order")
	ErrProgramNotFound     = errors.New("program does not exist")
	ErrProgramNotStarted   = errors.New("program has not started yet")
	ErrAlreadyEnrolled     = errors.New("user is already enrolled in the program")
	ErrNotEnrolled         = errors.New("user is not enrolled in the program")
	ErrCertificateNotFound = errors.New("certificate does not exist")
	ErrCallbackNotFound    = errors.New("payment callback does not exist")
	ErrInvalidPrice        = errors.New("price must not be negative")
	ErrUnknownCourse       = errors.New("unknown course")
	ErrUnknownInstructor   = errors.New("unknown instructor")
	ErrSubjectNotFound     = errors.New("subject does not exist")
	ErrLanguageNotFound    = errors.New("language does not exist")
	ErrInstitutionNotFound = errors.New("institution does not exist")
	ErrInstructorNotFound  = errors.New("instructor does not exist")
	ErrSignatoryNotFound   = errors.New("certificate signatory does not exist")
)
