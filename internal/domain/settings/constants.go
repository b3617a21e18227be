package settings

const (
	KeyDateFormat             = "dateFormat"
	KeyTimeFormat             = "timeFormat"
	KeyCalendarStartDay       = "calendarStartDay"
	KeyDefaultLanguage        = "defaultLanguage"
	KeyDefaultTimezone        = "defaultTimezone"
	KeyDefaultCurrency        = "defaultCurrency"
	KeyCurrencySymbol         = "currencySymbol"
	KeyCurrencySymbolPosition = "currencySymbolPosition"
	KeyCurrencySymbolSpace    = "currencySymbolSpace"
	KeyDecimalFormat          = "decimalFormat"
	KeyDecimalSeparator       = "decimalSeparator"
	KeyThousandsSeparator     = "thousandsSeparator"
	KeyCompanyName            = "companyName"
	KeyWorkingDaysPerMonth    = "workingDaysPerMonth"
	KeyEmailNotifications     = "emailNotifications"
	KeyMailFromAddress        = "mailFromAddress"

	SymbolBefore = "before"
	SymbolAfter  = "after"

	On  = "on"
	Off = "off"
)

// SuperAdminKeys are the locale/format keys a SaaS superadmin provides as
// defaults for every company.
var SuperAdminKeys = []string{
	KeyDateFormat,
	KeyTimeFormat,
	KeyCalendarStartDay,
	KeyDefaultLanguage,
	KeyDefaultTimezone,
	KeyDefaultCurrency,
	KeyCurrencySymbol,
	KeyCurrencySymbolPosition,
	KeyCurrencySymbolSpace,
	KeyDecimalFormat,
	KeyDecimalSeparator,
	KeyThousandsSeparator,
}

// Defaults seeded for a fresh superadmin (or a top-level company when SaaS
// mode is off).
var Defaults = map[string]string{
	KeyDateFormat:             "Y-m-d",
	KeyTimeFormat:             "H:i",
	KeyCalendarStartDay:       "0",
	KeyDefaultLanguage:        "en",
	KeyDefaultTimezone:        "UTC",
	KeyDefaultCurrency:        "USD",
	KeyCurrencySymbol:         "$",
	KeyCurrencySymbolPosition: SymbolBefore,
	KeyCurrencySymbolSpace:    "false",
	KeyDecimalFormat:          "2",
	KeyDecimalSeparator:       ".",
	KeyThousandsSeparator:     ",",
	KeyWorkingDaysPerMonth:    "30",
	KeyEmailNotifications:     Off,
}
