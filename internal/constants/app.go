package constants

const (
	AppPos = "pos-service"
)
