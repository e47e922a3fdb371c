package handlers

import (
	"time"

	"aroti/utils"
)

func validDate(s string) bool {
	_, err := time.Parse(utils.DateLayout, s)
	return err == nil
}

func validClock(s string) bool {
	_, err := time.Parse(utils.TimeLayout, s)
	return err == nil
}
