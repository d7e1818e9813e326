package ui

func MainMenu() [][]string {
	return [][]string{
		{NewReportButton},
		{BalanceButton, RulesButton, SupportButton},
	}
}

func SkipMenu() [][]string {
	return [][]string{{SkipButton}}
}

func ConfirmMenu() [][]string {
	return [][]string{{SubmitReportButton, CancelButton}}
}
