package pkg

import "studio"

func AssertNoError(err error) {
	if err != nil {
		studio.Logger.Error().Err(err).Msg("Error occurred that should not have occurred.")
		panic(err)
	}
}
