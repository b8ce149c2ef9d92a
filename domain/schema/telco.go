package schema

// The production churn model was fit on this exact column order. The first
// block is the continuous subset the scaler owns; everything else passes
// through unscaled (0/1 flags plus the Satisfaction_Score and
// Tenure_Quartile ordinals).

var telcoContinuous = []string{
	"Age",
	"Avg_Monthly_GB_Download",
	"Avg_Monthly_Long_Distance_Charges",
	"CLTV",
	"Monthly_Charge",
	"Population",
	"Total_Extra_Data_Charges",
	"Total_Long_Distance_Charges",
	"Total_Refunds",
	"Total_Revenue",
	"Tenure_in_Months",
	"Monthly_to_Total_Ratio",
	"Number_of_Dependents",
	"Number_of_Referrals",
}

var telcoFeatures = []string{
	"Age",
	"Avg_Monthly_GB_Download",
	"Avg_Monthly_Long_Distance_Charges",
	"CLTV",
	"Monthly_Charge",
	"Population",
	"Total_Extra_Data_Charges",
	"Total_Long_Distance_Charges",
	"Total_Refunds",
	"Total_Revenue",
	"Tenure_in_Months",
	"Monthly_to_Total_Ratio",
	"Number_of_Dependents",
	"Number_of_Referrals",
	"Dependents",
	"Device_Protection_Plan",
	"Gender",
	"Internet_Service",
	"Married",
	"Multiple_Lines",
	"Online_Backup",
	"Online_Security",
	"Paperless_Billing",
	"Partner",
	"Payment_Method_Credit_Card",
	"Payment_Method_Mailed_Check",
	"Phone_Service",
	"Premium_Tech_Support",
	"Referred_a_Friend",
	"Satisfaction_Score",
	"Senior_Citizen",
	"Streaming_Movies",
	"Streaming_Music",
	"Streaming_TV",
	"Unlimited_Data",
	"Contract_One_Year",
	"Contract_Two_Year",
	"Internet_Type_DSL",
	"Internet_Type_Fiber_Optic",
	"Internet_Type_No_Internet",
	"Offer_Offer_A",
	"Offer_Offer_B",
	"Offer_Offer_C",
	"Offer_Offer_D",
	"Offer_Offer_E",
	"Tenure_Quartile",
	"Early_Churner_Risk",
	"Low_Satisfaction",
}

// TelcoActionable is the allowlist of business-controllable levers the
// counterfactual search may change. Demographics and historical usage are
// deliberately excluded; a retention team cannot act on a customer's age or
// past download volume.
var TelcoActionable = []string{
	"Monthly_Charge",
	"Contract_One_Year",
	"Contract_Two_Year",
	"Online_Security",
	"Online_Backup",
	"Device_Protection_Plan",
	"Premium_Tech_Support",
	"Streaming_TV",
	"Streaming_Movies",
	"Streaming_Music",
	"Unlimited_Data",
	"Paperless_Billing",
	"Payment_Method_Credit_Card",
	"Payment_Method_Mailed_Check",
	"Internet_Type_DSL",
	"Internet_Type_Fiber_Optic",
	"Internet_Type_No_Internet",
	"Offer_Offer_A",
	"Offer_Offer_B",
	"Offer_Offer_C",
	"Offer_Offer_D",
	"Offer_Offer_E",
}

// TelcoContract returns the production telco churn schema.
func TelcoContract() *Contract {
	c, err := NewContract(telcoFeatures, telcoContinuous)
	if err != nil {
		// The static schema above is internally consistent; a failure here
		// is a programming error, not a runtime condition.
		panic(err)
	}
	return c
}
