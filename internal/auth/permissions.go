package auth

// Named capabilities granted to roles. Checked per endpoint by name.
const (
	PermCreateBooking         = "create_booking"
	PermViewAvailableBookings = "view_available_bookings"
	PermViewAllBookings       = "view_all_bookings"
	PermViewUserBookings      = "view_user_bookings"
	PermViewDriverBookings    = "view_driver_bookings"
	PermAcceptBooking         = "accept_booking"
	PermConfirmBooking        = "confirm_booking"
	PermCancelBooking         = "cancel_booking"
	PermStartRide             = "start_ride"
	PermEndRideWithRating     = "end_ride_with_rating"

	PermCreateRide   = "create_ride"
	PermViewAllRides = "view_all_rides"
	PermDeleteRide   = "delete_ride"

	PermViewPayment         = "view_payment"
	PermViewAllPayments     = "view_all_payments"
	PermViewDriverPayments  = "view_driver_payments"
	PermCompletePayment     = "complete_payment"
	PermUpdatePaymentStatus = "update_payment_status"
	PermDeletePayment       = "delete_payment"

	PermViewUser   = "view_user"
	PermUpdateUser = "update_user"
	PermDeleteUser = "delete_user"

	PermViewAllDrivers = "view_all_drivers"
	PermUpdateDriver   = "update_driver"
	PermDeleteDriver   = "delete_driver"

	PermCreateVehicle      = "create_vehicle"
	PermViewVehicle        = "view_vehicle"
	PermViewAllVehicles    = "view_all_vehicles"
	PermViewDriverVehicles = "view_driver_vehicles"
	PermUpdateVehicle      = "update_vehicle"
	PermDeleteVehicle      = "delete_vehicle"

	PermCreateComplaint   = "create_complaint"
	PermViewAllComplaints = "view_all_complaints"
	PermResolveComplaint  = "resolve_complaint"
	PermDeleteComplaint   = "delete_complaint"

	PermManageRoles       = "manage_roles"
	PermManagePermissions = "manage_permissions"
)

// AllPermissions lists every named capability, for seeding.
var AllPermissions = []string{
	PermCreateBooking, PermViewAvailableBookings, PermViewAllBookings,
	PermViewUserBookings, PermViewDriverBookings, PermAcceptBooking,
	PermConfirmBooking, PermCancelBooking, PermStartRide, PermEndRideWithRating,
	PermCreateRide, PermViewAllRides, PermDeleteRide,
	PermViewPayment, PermViewAllPayments, PermViewDriverPayments,
	PermCompletePayment, PermUpdatePaymentStatus, PermDeletePayment,
	PermViewUser, PermUpdateUser, PermDeleteUser,
	PermViewAllDrivers, PermUpdateDriver, PermDeleteDriver,
	PermCreateVehicle, PermViewVehicle, PermViewAllVehicles,
	PermViewDriverVehicles, PermUpdateVehicle, PermDeleteVehicle,
	PermCreateComplaint, PermViewAllComplaints, PermResolveComplaint,
	PermDeleteComplaint, PermManageRoles, PermManagePermissions,
}
