package auth

import (
	"sort"
	"strings"
)

// Capability names follow "<resource>.<action>".
type Capability string

const (
	CapCompanyView   Capability = "company.view"
	CapCompanyCreate Capability = "company.create"
	CapCompanyEdit   Capability = "company.edit"
	CapCompanyDelete Capability = "company.delete"

	CapPlanView     Capability = "plan.view"
	CapPlanCreate   Capability = "plan.create"
	CapPlanEdit     Capability = "plan.edit"
	CapPlanDelete   Capability = "plan.delete"
	CapPlanPurchase Capability = "plan.purchase"

	CapCouponView   Capability = "coupon.view"
	CapCouponCreate Capability = "coupon.create"
	CapCouponEdit   Capability = "coupon.edit"
	CapCouponDelete Capability = "coupon.delete"

	CapOrderView    Capability = "plan_order.view"
	CapOrderApprove Capability = "plan_order.approve"

	CapSettingView        Capability = "setting.view"
	CapSettingEdit        Capability = "setting.edit"
	CapPaymentSettingEdit Capability = "payment_setting.edit"

	CapStaffView   Capability = "staff.view"
	CapStaffCreate Capability = "staff.create"
	CapStaffEdit   Capability = "staff.edit"
	CapStaffDelete Capability = "staff.delete"

	CapComplaintView   Capability = "complaint.view"
	CapComplaintCreate Capability = "complaint.create"
	CapComplaintEdit   Capability = "complaint.edit"
	CapComplaintDelete Capability = "complaint.delete"
	CapComplaintStatus Capability = "complaint.status"

	CapTripView   Capability = "trip.view"
	CapTripCreate Capability = "trip.create"
	CapTripEdit   Capability = "trip.edit"
	CapTripDelete Capability = "trip.delete"
	CapTripStatus Capability = "trip.status"

	CapTrainingView       Capability = "training.view"
	CapTrainingCreate     Capability = "training.create"
	CapTrainingEdit       Capability = "training.edit"
	CapTrainingDelete     Capability = "training.delete"
	CapTrainingStatus     Capability = "training.status"
	CapTrainingAttendance Capability = "training.attendance"

	CapSalaryView   Capability = "salary.view"
	CapSalaryCreate Capability = "salary.create"
	CapSalaryEdit   Capability = "salary.edit"
	CapSalaryDelete Capability = "salary.delete"

	CapAttendanceView Capability = "attendance.view"
	CapAttendanceEdit Capability = "attendance.edit"

	CapPayslipView     Capability = "payslip.view"
	CapPayslipGenerate Capability = "payslip.generate"

	CapReviewView   Capability = "review.view"
	CapReviewCreate Capability = "review.create"
	CapReviewEdit   Capability = "review.edit"
	CapReviewDelete Capability = "review.delete"

	CapAuditView Capability = "audit.view"
)

type CapabilitySet map[Capability]struct{}

func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Actions lists the actions the set grants on a resource, sorted, e.g.
// Actions("complaint") -> [create delete edit status view].
func (s CapabilitySet) Actions(resource string) []string {
	prefix := resource + "."
	actions := make([]string, 0, 4)
	for c := range s {
		if name := string(c); strings.HasPrefix(name, prefix) {
			actions = append(actions, strings.TrimPrefix(name, prefix))
		}
	}
	sort.Strings(actions)
	return actions
}

var superAdminCaps = NewCapabilitySet(
	CapCompanyView, CapCompanyCreate, CapCompanyEdit, CapCompanyDelete,
	CapPlanView, CapPlanCreate, CapPlanEdit, CapPlanDelete,
	CapCouponView, CapCouponCreate, CapCouponEdit, CapCouponDelete,
	CapOrderView, CapOrderApprove,
	CapSettingView, CapSettingEdit, CapPaymentSettingEdit,
	CapAuditView,
)

var companyCaps = NewCapabilitySet(
	CapPlanView, CapPlanPurchase, CapOrderView,
	CapSettingView, CapSettingEdit, CapPaymentSettingEdit,
	CapStaffView, CapStaffCreate, CapStaffEdit, CapStaffDelete,
	CapComplaintView, CapComplaintCreate, CapComplaintEdit, CapComplaintDelete, CapComplaintStatus,
	CapTripView, CapTripCreate, CapTripEdit, CapTripDelete, CapTripStatus,
	CapTrainingView, CapTrainingCreate, CapTrainingEdit, CapTrainingDelete, CapTrainingStatus, CapTrainingAttendance,
	CapSalaryView, CapSalaryCreate, CapSalaryEdit, CapSalaryDelete,
	CapAttendanceView, CapAttendanceEdit,
	CapPayslipView, CapPayslipGenerate,
	CapReviewView, CapReviewCreate, CapReviewEdit, CapReviewDelete,
	CapAuditView,
)

var hrCaps = NewCapabilitySet(
	CapSettingView,
	CapStaffView, CapStaffCreate, CapStaffEdit,
	CapComplaintView, CapComplaintCreate, CapComplaintEdit, CapComplaintStatus,
	CapTripView, CapTripCreate, CapTripEdit, CapTripStatus,
	CapTrainingView, CapTrainingCreate, CapTrainingEdit, CapTrainingStatus, CapTrainingAttendance,
	CapSalaryView, CapSalaryCreate, CapSalaryEdit,
	CapAttendanceView, CapAttendanceEdit,
	CapPayslipView, CapPayslipGenerate,
	CapReviewView, CapReviewCreate, CapReviewEdit,
)

var employeeCaps = NewCapabilitySet(
	CapSettingView,
	CapComplaintView, CapComplaintCreate,
	CapTripView, CapTripCreate,
	CapTrainingView,
	CapAttendanceView,
	CapPayslipView,
	CapReviewView,
)

func CapabilitiesFor(userType string) CapabilitySet {
	switch userType {
	case UserTypeSuperAdmin:
		return superAdminCaps
	case UserTypeCompany:
		return companyCaps
	case UserTypeHR:
		return hrCaps
	case UserTypeEmployee:
		return employeeCaps
	default:
		return CapabilitySet{}
	}
}
